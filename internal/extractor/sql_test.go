package extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carter293/Carter-Querio-notebook-sub004/pkg/models"
)

func TestExtractSQL_SinglePlaceholder(t *testing.T) {
	reads, writes, err := Extract("SELECT * FROM orders WHERE user_id = {user_id}", models.LanguageSQL)
	require.NoError(t, err)
	assert.Equal(t, []string{"user_id"}, reads)
	assert.Empty(t, writes)
}

func TestExtractSQL_MultiplePlaceholdersDeduped(t *testing.T) {
	reads, _, err := Extract("SELECT * FROM t WHERE a = {x} AND b = {x} AND c = {y}", models.LanguageSQL)
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y"}, reads)
}

func TestExtractSQL_NoPlaceholders(t *testing.T) {
	reads, writes, err := Extract("SELECT 1", models.LanguageSQL)
	require.NoError(t, err)
	assert.Empty(t, reads)
	assert.Empty(t, writes)
}

func TestExtract_UnknownLanguage(t *testing.T) {
	_, _, err := Extract("x = 1", models.Language("rust"))
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrUnknownLanguage)
}
