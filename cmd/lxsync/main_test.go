package main

import (
	"testing"
)

func TestParseFilters(t *testing.T) {
	got, err := parseFilters([]string{"search_field=seller_sku", " status = 1", "empty="})
	if err != nil {
		t.Fatalf("parseFilters: %v", err)
	}
	if got["search_field"] != "seller_sku" || got["status"] != "1" || got["empty"] != "" {
		t.Fatalf("filters = %#v", got)
	}

	if got, err := parseFilters(nil); err != nil || got != nil {
		t.Fatalf("parseFilters(nil) = %v, %v", got, err)
	}

	for _, bad := range []string{"novalue", "=x"} {
		if _, err := parseFilters([]string{bad}); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestNewCommand_Subcommands(t *testing.T) {
	cmd := newCommand()
	want := map[string]bool{"stores": false, "inventory": false, "token": false}
	for _, sub := range cmd.Commands {
		if _, ok := want[sub.Name]; ok {
			want[sub.Name] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Fatalf("missing subcommand %s", name)
		}
	}
}
