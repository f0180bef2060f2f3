package synth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"specforge/internal/intent"
)

func TestRegisterRejectsIncomplete(t *testing.T) {
	r := NewRegistry()

	err := r.Register(&Template{ID: "x", Tag: "t", Language: LangPython})
	assert.Error(t, err, "missing strategy and generator should be rejected")

	err = r.Register(&Template{Tag: "t", Language: LangPython, StrategyID: "s",
		Generate: func(intent.IR) (Artifacts, error) { return Artifacts{}, nil }})
	assert.Error(t, err, "missing ID should be rejected")
}

func TestRegisterRejectsDuplicateID(t *testing.T) {
	r := NewRegistry()
	tpl := &Template{
		ID: "python/t/s", Tag: "t", Language: LangPython, StrategyID: "s",
		Generate: func(intent.IR) (Artifacts, error) { return Artifacts{}, nil },
	}
	require.NoError(t, r.Register(tpl))
	assert.Error(t, r.Register(tpl))
}

func TestCandidatesPreserveRegistrationOrder(t *testing.T) {
	r := NewRegistry()
	for _, strategy := range []string{"first", "second", "third"} {
		require.NoError(t, r.Register(&Template{
			ID: "python/t/" + strategy, Tag: "t", Language: LangPython, StrategyID: strategy,
			Generate: func(intent.IR) (Artifacts, error) { return Artifacts{}, nil },
		}))
	}

	got := r.Candidates("t", LangPython)
	require.Len(t, got, 3)
	assert.Equal(t, "first", got[0].StrategyID)
	assert.Equal(t, "second", got[1].StrategyID)
	assert.Equal(t, "third", got[2].StrategyID)
}

func TestCandidatesFilterByLanguage(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(&Template{
		ID: "python/t/s", Tag: "t", Language: LangPython, StrategyID: "s",
		Generate: func(intent.IR) (Artifacts, error) { return Artifacts{}, nil },
	}))

	assert.Len(t, r.Candidates("t", LangPython), 1)
	assert.Empty(t, r.Candidates("t", LangGo))
	assert.Empty(t, r.Candidates("other", LangPython))
}

func TestStrategiesIncludeStub(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(&Template{
		ID: "python/t/loop", Tag: "t", Language: LangPython, StrategyID: "loop",
		Generate: func(intent.IR) (Artifacts, error) { return Artifacts{}, nil },
	}))

	got := r.Strategies()
	assert.Equal(t, []string{"loop", StrategyStub}, got)
}

func TestDefaultRegistryCoversAllKnownTags(t *testing.T) {
	r := DefaultRegistry()

	for _, tag := range templateTagOrder {
		assert.NotEmpty(t, r.Candidates(tag, LangPython), "python candidates for %s", tag)
		assert.NotEmpty(t, r.Candidates(tag, LangGo), "go candidates for %s", tag)
	}
	assert.True(t, r.SupportsLanguage(LangPython))
	assert.True(t, r.SupportsLanguage(LangGo))
	assert.False(t, r.SupportsLanguage("rust"))
}
