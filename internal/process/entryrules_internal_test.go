package process

import "testing"

// TestEntryRules_HandlePrefixIsCaseInsensitive verifies the "handle*" entry
// rule matches regardless of case, matching every other rule in the set
// (spec.md §4.8: case-insensitive except on[A-Z]).
func TestEntryRules_HandlePrefixIsCaseInsensitive(t *testing.T) {
	var handleRule entryRule
	for _, r := range entryRules {
		if r.re.String() == `(?i)^handle.*$` {
			handleRule = r
		}
	}
	if handleRule.re == nil {
		t.Fatal("expected a case-insensitive handle* entry rule")
	}

	for _, name := range []string{"HandleRequest", "handleRequest", "HANDLE_ALL"} {
		if !handleRule.re.MatchString(name) {
			t.Errorf("expected %q to match the handle* entry rule", name)
		}
	}
}

// TestEntryRules_OnPrefix_RemainsCaseSensitive verifies the on[A-Z] rule is
// deliberately case-sensitive (it must not match a bare lowercase "on...").
func TestEntryRules_OnPrefix_RemainsCaseSensitive(t *testing.T) {
	var onRule entryRule
	for _, r := range entryRules {
		if r.re.String() == `^on[A-Z].*$` {
			onRule = r
		}
	}
	if onRule.re == nil {
		t.Fatal("expected the on[A-Z] entry rule")
	}

	if !onRule.re.MatchString("onClick") {
		t.Errorf("expected onClick to match")
	}
	if onRule.re.MatchString("online") {
		t.Errorf("did not expect online to match on[A-Z]")
	}
}
