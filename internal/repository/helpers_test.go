package repository

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLikePattern(t *testing.T) {
	t.Parallel()

	require.Equal(t, "ヤマ%", likePattern(false, "ヤマ", true))
	require.Equal(t, "%0901234%", likePattern(true, "0901234", true))
	require.Equal(t, `%100\%\_off\\%`, likePattern(true, `100%_off\`, true))
}
