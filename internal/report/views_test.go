package report

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/hpungsan/qdpx/internal/model"
)

func TestCodeTree(t *testing.T) {
	tree := CodeTree(decodeFixture(t))

	require.Len(t, tree, 2)
	require.Equal(t, "Themes", tree[0].Name)
	require.Equal(t, "#336699", tree[0].Color)
	require.False(t, tree[0].Codable)
	require.Equal(t, 0, tree[0].Usage)
	require.Len(t, tree[0].Children, 1)
	require.Equal(t, CodeNode{ID: codeB, Name: "Trust", Codable: true, Usage: 2}, tree[0].Children[0])
	require.Equal(t, 1, tree[1].Usage)
	require.Nil(t, tree[1].Children)
}

func TestCodeTree_NoCodebook(t *testing.T) {
	b, err := json.Marshal(CodeTree(&model.Project{Name: "bare"}))
	require.NoError(t, err)
	require.JSONEq(t, `[]`, string(b))
}

func TestFindSource(t *testing.T) {
	p := decodeFixture(t)

	v, ok := FindSource(p, uuid.MustParse(source1))
	require.True(t, ok)
	require.Equal(t, "TextSource", v.Kind)
	require.Equal(t, "interview.txt", v.Name)
	require.Equal(t, "internal://interview.txt", v.MediaPath)
	require.Equal(t, []string{codeC}, v.Codes)
	require.Len(t, v.Selections, 1)
	require.Equal(t, []string{codeB, codeB}, v.Selections[0].Codes)

	v, ok = FindSource(p, uuid.MustParse(source2))
	require.True(t, ok)
	require.Empty(t, v.Name)
	require.Empty(t, v.Codes)
	require.Len(t, v.Selections, 2)
	require.Equal(t, "30000000-0000-4000-8000-000000000005", v.Selections[0].ID)

	_, ok = FindSource(p, uuid.MustParse(missing))
	require.False(t, ok)
	_, ok = FindSource(&model.Project{Name: "bare"}, uuid.MustParse(source1))
	require.False(t, ok)
}
