package tokens

import "testing"

func TestEstimate(t *testing.T) {
	if got := Estimate(""); got != 0 {
		t.Errorf("empty text must estimate 0 tokens, got %d", got)
	}

	short := Estimate("good phone")
	long := Estimate("good phone with a long battery life and a bright screen that survives drops")
	if short <= 0 {
		t.Errorf("non-empty text must estimate at least one token, got %d", short)
	}
	if long <= short {
		t.Errorf("longer text must estimate more tokens: short=%d long=%d", short, long)
	}
}
