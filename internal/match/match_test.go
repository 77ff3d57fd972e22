package match

import (
	"testing"

	"github.com/stretchr/testify/require"

	"sigherald/internal/config"
	"sigherald/internal/model"
)

func testConfig() *config.Config {
	cfg := &config.Config{
		SIGs: []config.SIGConfig{
			{Prefix: "[X] sig-foo", ChannelName: "sig-foo", ChannelWebhook: "http://foo", FolderID: "F1"},
			{Prefix: "[X] sig-bar", ChannelName: "sig-bar", ChannelWebhook: "http://bar", FolderID: "F2"},
		},
	}
	cfg.Normalize()
	return cfg
}

func TestMatchContainsVsPrefix(t *testing.T) {
	table := NewTable(testConfig())

	// Renamed artifacts embed the prefix mid-string; contains still hits.
	m, ok := table.Match("copy of [X] sig-foo Recording", ModeContains)
	require.True(t, ok)
	require.Equal(t, "[X] sig-foo", m.SIG.Prefix)

	// Prefix mode requires the name to start with the prefix.
	_, ok = table.Match("copy of [X] sig-foo Recording", ModePrefix)
	require.False(t, ok)

	m, ok = table.Match("[X] sig-foo: standup", ModePrefix)
	require.True(t, ok)
	require.Equal(t, "[X] sig-foo", m.SIG.Prefix)
}

func TestMatchNoConfiguredPrefix(t *testing.T) {
	table := NewTable(testConfig())

	_, ok := table.Match("random screenshot.png", ModeContains)
	require.False(t, ok)
}

func TestMatchFirstEntryWinsOnOverlap(t *testing.T) {
	cfg := &config.Config{
		SIGs: []config.SIGConfig{
			{Prefix: "[X] sig-foo", ChannelWebhook: "http://foo"},
			{Prefix: "[X] sig-foo-archive", ChannelWebhook: "http://archive"},
		},
	}
	cfg.Normalize()
	table := NewTable(cfg)

	// "[X] sig-foo" is a prefix of "[X] sig-foo-archive"; table order is
	// the documented tie-break.
	m, ok := table.Match("[X] sig-foo-archive Notes", ModeContains)
	require.True(t, ok)
	require.Equal(t, "[X] sig-foo", m.SIG.Prefix)
}

func TestAuxiliaryClassification(t *testing.T) {
	table := NewTable(testConfig())

	m, ok := table.Match("[X] sig-foo Chat transcript", ModeContains)
	require.True(t, ok)
	require.True(t, m.Auxiliary)

	m, ok = table.Match("[X] sig-foo Recording", ModeContains)
	require.True(t, ok)
	require.False(t, m.Auxiliary)
}

func TestPairingCompleteness(t *testing.T) {
	table := NewTable(testConfig())

	// Only a recording: not actionable.
	groups := table.GroupItems([]model.SourceItem{
		{ID: "1", Name: "[X] sig-foo Recording"},
	})
	require.Len(t, groups, 1)
	require.False(t, table.Actionable(groups[0]))
	require.Equal(t, []string{"notes"}, table.MissingRoles(groups[0]))

	// Adding the notes item with the same prefix makes it actionable on
	// the next evaluation.
	groups = table.GroupItems([]model.SourceItem{
		{ID: "1", Name: "[X] sig-foo Recording"},
		{ID: "2", Name: "[X] sig-foo Notes by Gemini"},
	})
	require.Len(t, groups, 1)
	require.True(t, table.Actionable(groups[0]))
	require.Empty(t, table.MissingRoles(groups[0]))
}

func TestAuxiliaryGroupActionableAlone(t *testing.T) {
	table := NewTable(testConfig())

	groups := table.GroupItems([]model.SourceItem{
		{ID: "1", Name: "[X] sig-foo Chat"},
	})
	require.Len(t, groups, 1)
	require.True(t, groups[0].Auxiliary)
	require.True(t, table.Actionable(groups[0]))
}

func TestGroupItemsPartitions(t *testing.T) {
	table := NewTable(testConfig())

	groups := table.GroupItems([]model.SourceItem{
		{ID: "1", Name: "[X] sig-foo Recording"},
		{ID: "2", Name: "[X] sig-foo Notes"},
		{ID: "3", Name: "[X] sig-foo Chat"},
		{ID: "4", Name: "[X] sig-bar Notes"},
		{ID: "5", Name: "unmatched item"},
	})

	// sig-foo regular, sig-foo auxiliary, sig-bar regular; table order.
	require.Len(t, groups, 3)

	require.Equal(t, "[X] sig-foo", groups[0].SIG.Prefix)
	require.False(t, groups[0].Auxiliary)
	require.Len(t, groups[0].Items, 2)

	require.Equal(t, "[X] sig-foo", groups[1].SIG.Prefix)
	require.True(t, groups[1].Auxiliary)
	require.Len(t, groups[1].Items, 1)

	require.Equal(t, "[X] sig-bar", groups[2].SIG.Prefix)
	require.Len(t, groups[2].Items, 1)
}

func TestRoleItems(t *testing.T) {
	g := Group{Items: []model.SourceItem{
		{ID: "1", Name: "[X] sig-foo Recording"},
		{ID: "2", Name: "[X] sig-foo Notes"},
	}}

	recordings := g.RoleItems("Recording")
	require.Len(t, recordings, 1)
	require.Equal(t, "1", recordings[0].ID)
}
