package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFace_DisplayName(t *testing.T) {
	require.Equal(t, "Alice", Face{Name: "Alice"}.DisplayName())
	require.Equal(t, UntitledFace, Face{}.DisplayName())
	require.Equal(t, UntitledFace, Face{Name: "   "}.DisplayName())
}

func TestLinkableFace_DecodesEmbeddedFields(t *testing.T) {
	var f LinkableFace
	err := json.Unmarshal([]byte(`{"id":3,"name":"Bob","face_url":"https://x/3.jpg","face_count":7,"linked":true}`), &f)
	require.NoError(t, err)
	require.Equal(t, int64(3), f.ID)
	require.Equal(t, "Bob", f.Name)
	require.Equal(t, "https://x/3.jpg", f.ThumbnailURL)
	require.Equal(t, 7, f.PhotoCount)
	require.True(t, f.Linked)
}
