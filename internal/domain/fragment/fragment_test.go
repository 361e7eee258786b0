package fragment

import (
	"strings"
	"testing"
)

func TestItems(t *testing.T) {
	markup := `
<li class="hit"><a href="/file/1">Budget 2020</a></li>
<li class="hit">Council <ul><li>nested</li></ul></li>
<p>not an item</p>`

	items, err := Items(markup)
	if err != nil {
		t.Fatalf("Items: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("len = %d, want 2: %v", len(items), items)
	}
	if !strings.Contains(items[0], "Budget 2020") || !strings.HasPrefix(items[0], "<li") {
		t.Errorf("item 0 = %q", items[0])
	}
	if !strings.Contains(items[1], "nested") {
		t.Errorf("nested list lost: %q", items[1])
	}
}

func TestItems_Empty(t *testing.T) {
	items, err := Items("  \n ")
	if err != nil {
		t.Fatalf("Items: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("items = %v", items)
	}
}

func TestText(t *testing.T) {
	got := Text("<li><b>Budget</b>\n  2020<script>x()</script></li>")
	if got != "Budget 2020" {
		t.Errorf("Text = %q", got)
	}
}
