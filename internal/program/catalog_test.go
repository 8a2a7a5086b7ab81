package program

import "testing"

const catalogYAML = `
project:
  noneProjectComment: "Repo is not in the program."
  noneMaintainerComment: "You are not a maintainer here."
task:
  success: "Task created, happy hacking!"
  successUpdate: "Score updated"
command:
  notMentor: "Mentor only."
`

func TestParseCatalogFlattensSections(t *testing.T) {
	c, err := ParseCatalog([]byte(catalogYAML))
	if err != nil {
		t.Fatalf("ParseCatalog error: %v", err)
	}

	tests := []struct {
		key  MessageKey
		want string
	}{
		{MsgNoneProject, "Repo is not in the program."},
		{MsgSuccess, "Task created, happy hacking!"},
		{MsgNotMentor, "Mentor only."},
	}
	for _, tt := range tests {
		if got := c.Render(tt.key, ""); got != tt.want {
			t.Errorf("Render(%s) = %q, want %q", tt.key, got, tt.want)
		}
	}
}

func TestRenderFallback(t *testing.T) {
	c, err := ParseCatalog([]byte(catalogYAML))
	if err != nil {
		t.Fatal(err)
	}

	// Key absent from the file resolves to the built-in text.
	if got := c.Render(MsgTaskNotFound, ""); got != fallbacks[MsgTaskNotFound] {
		t.Errorf("missing key rendered %q", got)
	}

	// A nil catalog still produces text for every known key.
	var nilCat *Catalog
	for key := range fallbacks {
		if nilCat.Render(key, "") == "" {
			t.Errorf("nil catalog rendered empty text for %s", key)
		}
	}
}

func TestRenderAppendsArg(t *testing.T) {
	c, err := ParseCatalog([]byte(catalogYAML))
	if err != nil {
		t.Fatal(err)
	}

	if got := c.Render(MsgSuccessUpdate, "4"); got != "Score updated: 4" {
		t.Errorf("Render with arg = %q", got)
	}
	if got := c.Render(MsgSuccessUpdate, ""); got != "Score updated" {
		t.Errorf("Render without arg = %q", got)
	}
}

func TestRenderUnknownKey(t *testing.T) {
	c := &Catalog{}
	if got := c.Render(MessageKey("madeUpKey"), ""); got != "madeUpKey" {
		t.Errorf("unknown key rendered %q", got)
	}
}
