package engine

import (
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestCombinationKey_JointComposite(t *testing.T) {
	charA := uuid.MustParse("11111111-1111-4111-8111-111111111111")
	charB := uuid.MustParse("22222222-2222-4222-8222-222222222222")
	optA := uuid.MustParse("cccc0001-0000-4000-8000-000000000001")
	optB := uuid.MustParse("cccc0002-0000-4000-8000-000000000002")

	key := CombinationKey(map[uuid.UUID]uuid.UUID{
		charB: optB,
		charA: optA,
	})

	// The key is a composite of every participant's choice, ordered by
	// character ID regardless of map iteration order.
	want := charA.String() + "=" + optA.String() + "&" + charB.String() + "=" + optB.String()
	if key != want {
		t.Errorf("expected %q, got %q", want, key)
	}
}

func TestCombinationKey_StableAcrossCalls(t *testing.T) {
	choices := map[uuid.UUID]uuid.UUID{
		uuid.New(): uuid.New(),
		uuid.New(): uuid.New(),
		uuid.New(): uuid.New(),
	}

	first := CombinationKey(choices)
	for i := 0; i < 20; i++ {
		if got := CombinationKey(choices); got != first {
			t.Fatalf("key not stable: %q vs %q", first, got)
		}
	}
	if strings.Count(first, "&") != 2 {
		t.Errorf("expected 3 segments, got %q", first)
	}
}

func TestCombinationKey_SingleParticipant(t *testing.T) {
	char := uuid.New()
	opt := uuid.New()
	key := CombinationKey(map[uuid.UUID]uuid.UUID{char: opt})
	if key != char.String()+"="+opt.String() {
		t.Errorf("unexpected single-participant key %q", key)
	}
}
