package fault

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

type aggregated struct{}

func (aggregated) Error() string    { return "aggregated" }
func (aggregated) FaultKind() Kind { return KindContent }

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"content", Contentf("cook", "missing outcome for tier %d", 2), KindContent},
		{"consistency", Consistencyf("cook", "no heat_source"), KindConsistency},
		{"wrapped content", fmt.Errorf("do: %w", Contentf("cook", "x")), KindContent},
		{"wrapped consistency", fmt.Errorf("do: %w", Consistencyf("cook", "x")), KindConsistency},
		{"kinded", fmt.Errorf("load: %w", aggregated{}), KindContent},
		{"plain", errors.New("boom"), KindUnknown},
		{"nil", nil, KindUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestErrorMessages(t *testing.T) {
	err := Contentf("cook_basic_meal", "missing outcome for tier %d", 3)
	assert.Equal(t, `content error: action "cook_basic_meal": missing outcome for tier 3`, err.Error())

	err = Consistencyf("", "item vanished")
	assert.Equal(t, "consistency error: item vanished", err.Error())

	cause := errors.New("no such key")
	err = &ContentError{ActionID: "repair_item", Msg: "formula repair_cost", Err: cause}
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "no such key")
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "content", KindContent.String())
	assert.Equal(t, "consistency", KindConsistency.String())
	assert.Equal(t, "unknown", KindUnknown.String())
}
