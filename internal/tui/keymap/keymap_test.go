package keymap

import (
	"testing"

	"github.com/charmbracelet/bubbles/key"
)

func TestDefault_NoDuplicateKeys(t *testing.T) {
	k := Default()
	seen := make(map[string]string)
	app := map[string]key.Binding{
		"Save": k.Save, "SaveAs": k.SaveAs, "SaveAll": k.SaveAll,
		"Open": k.Open, "New": k.New, "Close": k.Close,
		"NextTab": k.NextTab, "PrevTab": k.PrevTab, "Reload": k.Reload,
		"Indent": k.Indent, "Help": k.Help, "Quit": k.Quit,
	}
	for name, b := range app {
		if len(b.Keys()) == 0 {
			t.Errorf("%s has no keys", name)
		}
		for _, kb := range b.Keys() {
			if other, ok := seen[kb]; ok {
				t.Errorf("key %q bound to both %s and %s", kb, other, name)
			}
			seen[kb] = name
		}
	}
}

func TestFullHelpCoversShortHelp(t *testing.T) {
	k := Default()
	full := make(map[string]bool)
	for _, col := range k.FullHelp() {
		for _, b := range col {
			full[b.Help().Desc] = true
		}
	}
	for _, b := range k.ShortHelp() {
		if !full[b.Help().Desc] {
			t.Errorf("short help entry %q missing from full help", b.Help().Desc)
		}
	}
}
