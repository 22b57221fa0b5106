package construct

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseArgs(t *testing.T) {
	t.Run("Forms", func(t *testing.T) {
		entries, err := ParseArgs([]string{
			"--hidden=128",
			"--model.layers", "4",
			"--verbose",
			"--...lr", "0.1",
		})
		require.NoError(t, err)

		assert.Equal(t, Literal{Raw: "128"}, entries["hidden"])
		assert.Equal(t, Literal{Raw: "4"}, entries["model.layers"])
		assert.Equal(t, Literal{Raw: "true"}, entries["verbose"])
		assert.Equal(t, Literal{Raw: "0.1"}, entries["...lr"])
	})

	t.Run("ReferenceValues", func(t *testing.T) {
		entries, err := ParseArgs([]string{
			"--eval_lr", "@optim.lr",
			"--handle", `\@literal`,
		})
		require.NoError(t, err)

		assert.Equal(t, Reference{Target: "optim.lr"}, entries["eval_lr"])
		assert.Equal(t, Literal{Raw: "@literal"}, entries["handle"])
	})

	t.Run("FlagBeforeNextFlag", func(t *testing.T) {
		entries, err := ParseArgs([]string{"--debug", "--hidden", "8"})
		require.NoError(t, err)
		assert.Equal(t, Literal{Raw: "true"}, entries["debug"])
		assert.Equal(t, Literal{Raw: "8"}, entries["hidden"])
	})

	t.Run("SeparatorSkipped", func(t *testing.T) {
		entries, err := ParseArgs([]string{"--a=1", "--", "--b=2"})
		require.NoError(t, err)
		assert.Len(t, entries, 2)
	})

	t.Run("Rejections", func(t *testing.T) {
		_, err := ParseArgs([]string{"positional"})
		assert.Error(t, err)

		_, err = ParseArgs([]string{"--bad..key=1"})
		assert.Error(t, err)

		_, err = ParseArgs([]string{"--a=1", "--a=2"})
		assert.Error(t, err)
	})
}
