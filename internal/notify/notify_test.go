package notify

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"sigherald/internal/config"
	"sigherald/internal/model"
)

type sentMessage struct {
	URL     string
	Payload Payload
}

type fakeSender struct {
	sent []sentMessage
}

func (f *fakeSender) SendMessage(_ context.Context, url string, payload Payload) error {
	f.sent = append(f.sent, sentMessage{URL: url, Payload: payload})
	return nil
}

func fanoutConfig() *config.Config {
	cfg := &config.Config{
		CommunityPrefix: "[X] community",
		ErrorWebhook:    "http://err",
		SIGs: []config.SIGConfig{
			{Prefix: "[X] community", ChannelName: "community", ChannelWebhook: "http://community"},
			{Prefix: "[X] sig-foo", ChannelName: "sig-foo", ChannelWebhook: "http://foo"},
		},
	}
	cfg.Normalize()
	return cfg
}

func TestResolveFansOutToCommunity(t *testing.T) {
	r := NewResolver(fanoutConfig())

	dests := r.Resolve(config.SIGConfig{Prefix: "[X] sig-foo", ChannelName: "sig-foo", ChannelWebhook: "http://foo"})
	require.Len(t, dests, 2)
	require.Equal(t, "http://foo", dests[0].Webhook)
	require.Equal(t, "http://community", dests[1].Webhook)
}

func TestResolveCommunityIsSingleDestination(t *testing.T) {
	cfg := fanoutConfig()
	r := NewResolver(cfg)

	dests := r.Resolve(cfg.SIGs[0])
	require.Len(t, dests, 1)
	require.Equal(t, "http://community", dests[0].Webhook)
}

func TestResolveWithoutCommunityConfigured(t *testing.T) {
	cfg := &config.Config{
		SIGs: []config.SIGConfig{
			{Prefix: "[X] sig-foo", ChannelWebhook: "http://foo"},
		},
	}
	cfg.Normalize()
	r := NewResolver(cfg)

	dests := r.Resolve(cfg.SIGs[0])
	require.Len(t, dests, 1)
}

func TestNewMessagePayloadShape(t *testing.T) {
	p := NewMessage("hello")
	require.Equal(t, "hello", p.Text)
	require.Len(t, p.Blocks, 1)
	require.Equal(t, "section", p.Blocks[0].Type)
	require.Equal(t, "mrkdwn", p.Blocks[0].Text.Type)
	require.Equal(t, "hello", p.Blocks[0].Text.Text)
}

func TestFormatMeetingStart(t *testing.T) {
	occ := model.Occurrence{
		Title:         "[X] sig-foo: standup",
		Start:         time.Date(2026, 3, 10, 17, 0, 0, 0, time.UTC),
		ConferenceURL: "https://meet.google.com/abc-defg-hij",
		Attachments: []model.Attachment{
			{URL: "https://docs.example.com/d/1", Name: "Agenda", Icon: ":page_facing_up:"},
		},
	}

	text := FormatMeetingStart(occ, time.UTC)
	require.Contains(t, text, "*[X] sig-foo: standup*")
	require.Contains(t, text, "17:00 UTC")
	require.Contains(t, text, "https://meet.google.com/abc-defg-hij")
	require.Contains(t, text, "• :page_facing_up: <https://docs.example.com/d/1|Agenda>")
}

func TestFormatMovedGroupBulletedList(t *testing.T) {
	sig := config.SIGConfig{Prefix: "[X] sig-foo", ChannelName: "sig-foo"}
	items := []model.SourceItem{
		{Name: "[X] sig-foo Notes by Gemini"},
		{Name: "[X] sig-foo Recording"},
	}

	text := FormatMovedGroup(sig, items)
	require.Contains(t, text, "2 meeting artifact(s)")
	require.Contains(t, text, "*sig-foo*")
	require.Contains(t, text, "• [X] sig-foo Notes by Gemini")
	require.Contains(t, text, "• [X] sig-foo Recording")
}

func TestDispatchProduction(t *testing.T) {
	sender := &fakeSender{}
	d := NewDispatcher(sender, "http://err", false)

	err := d.Dispatch(context.Background(), Destination{Name: "sig-foo", Webhook: "http://foo"}, "hi")
	require.NoError(t, err)
	require.Len(t, sender.sent, 1)
	require.Equal(t, "http://foo", sender.sent[0].URL)
	require.Equal(t, "hi", sender.sent[0].Payload.Text)
}

func TestDispatchDebugReroutesToErrorWebhook(t *testing.T) {
	sender := &fakeSender{}
	d := NewDispatcher(sender, "http://err", true)

	err := d.Dispatch(context.Background(), Destination{Name: "sig-foo", Webhook: "http://foo"}, "hi")
	require.NoError(t, err)
	require.Len(t, sender.sent, 1)
	require.Equal(t, "http://err", sender.sent[0].URL)
	require.True(t, strings.HasPrefix(sender.sent[0].Payload.Text, "[debug → sig-foo] "))
	require.Contains(t, sender.sent[0].Payload.Text, "hi")
}
