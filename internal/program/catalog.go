package program

import (
	"strings"

	"gopkg.in/yaml.v3"
)

// MessageKey names one entry in the comment catalog. The decision logic only
// ever selects a key; the literal comment text comes from the catalog file.
type MessageKey string

const (
	MsgMultiScoreLabel MessageKey = "multiScoreLabel"
	MsgNoneProject     MessageKey = "noneProjectComment"
	MsgNoneMaintainer  MessageKey = "noneMaintainerComment"
	MsgScoreUndefined  MessageKey = "scoreUndefinedComment"
	MsgScoreInvalid    MessageKey = "scoreInvalidComment"
	MsgTooManyTasks    MessageKey = "userToomanyTask"
	MsgSuccess         MessageKey = "success"
	MsgSuccessUpdate   MessageKey = "successUpdate"
	MsgNotAllowed      MessageKey = "notAllowedModify"
	MsgTaskNotFound    MessageKey = "taskNotFound"

	MsgCommandUnknown   MessageKey = "commandUnknown"
	MsgStatusNotAllowed MessageKey = "statusNotAllowed"
	MsgNotMentor        MessageKey = "notMentor"
	MsgNotStudent       MessageKey = "notStudent"
	MsgAssignRequested  MessageKey = "assignRequested"
	MsgAssignApproved   MessageKey = "assignApproved"
	MsgAssignDenied     MessageKey = "assignDenied"
	MsgFinishRequested  MessageKey = "finishRequested"
	MsgFinishConfirmed  MessageKey = "finishConfirmed"
	MsgFinishRejected   MessageKey = "finishRejected"
	MsgScoreAdjusted    MessageKey = "scoreAdjusted"
	MsgPersistFailed    MessageKey = "persistFailed"
)

// fallbacks keep the bot talking when the catalog file is missing an entry.
// A sparse catalog must never suppress a decision comment.
var fallbacks = map[MessageKey]string{
	MsgMultiScoreLabel:  "Multiple score labels found on this issue. Remove the extra ones first.",
	MsgNoneProject:      "This repository is not registered in the mentorship program.",
	MsgNoneMaintainer:   "The issue creator is not a registered maintainer for this repository.",
	MsgScoreUndefined:   "The score label carries no numeric score.",
	MsgScoreInvalid:     "The score is outside the allowed range for this maintainer.",
	MsgTooManyTasks:     "The maintainer already holds the maximum number of open tasks.",
	MsgSuccess:          "Task created.",
	MsgSuccessUpdate:    "Task score updated",
	MsgNotAllowed:       "This task is finished and can no longer be modified.",
	MsgTaskNotFound:     "No task exists for this issue.",
	MsgCommandUnknown:   "Unrecognized command.",
	MsgStatusNotAllowed: "This command is not allowed in the current task status",
	MsgNotMentor:        "Only the task mentor may run this command.",
	MsgNotStudent:       "Only the assigned student may run this command.",
	MsgAssignRequested:  "Assignment requested. Waiting for mentor approval.",
	MsgAssignApproved:   "Assignment approved. The task is now assigned.",
	MsgAssignDenied:     "Assignment denied. The task is open again.",
	MsgFinishRequested:  "Finish requested. Waiting for mentor confirmation.",
	MsgFinishConfirmed:  "Task finished. Congratulations!",
	MsgFinishRejected:   "Finish rejected. The task stays assigned.",
	MsgScoreAdjusted:    "Task score adjusted",
	MsgPersistFailed:    "The action was accepted but could not be saved. Please retry.",
}

// Catalog maps message keys to comment text, loaded from the comment YAML
// document in the config repository.
type Catalog struct {
	entries map[MessageKey]string
}

// ParseCatalog decodes the comment catalog YAML. The document groups keys in
// project/task/command sections; section names are flattened away since keys
// are unique across sections.
func ParseCatalog(data []byte) (*Catalog, error) {
	var doc map[string]map[string]string
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	c := &Catalog{entries: make(map[MessageKey]string)}
	for _, section := range doc {
		for k, v := range section {
			c.entries[MessageKey(k)] = v
		}
	}
	return c, nil
}

// Render resolves a key to comment text, falling back to the built-in text
// when the catalog file has no entry. An arg, when present, is appended as
// ": <arg>" the way the original score-update comment reads.
func (c *Catalog) Render(key MessageKey, arg string) string {
	text := ""
	if c != nil && c.entries != nil {
		text = c.entries[key]
	}
	if text == "" {
		text = fallbacks[key]
	}
	if text == "" {
		text = string(key)
	}
	if arg != "" {
		return strings.TrimSpace(text) + ": " + arg
	}
	return text
}
