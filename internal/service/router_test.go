package service

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"satbridge/internal/models"
)

func activeSubs(names ...string) []models.Subscription {
	subs := make([]models.Subscription, 0, len(names))
	for _, n := range names {
		subs = append(subs, models.Subscription{Name: n, Status: models.SubscriptionActive})
	}
	return subs
}

func TestRouteNoActiveSubscriptions(t *testing.T) {
	registry := new(mockRegistry)
	registry.On("ActiveTargets", "+471").Return([]models.Subscription{}, nil)

	cr := NewCaptionRouter(registry, true, true)
	targets, caption, err := cr.Route("+471", "cabin hello")
	require.NoError(t, err)
	assert.Empty(t, targets)
	assert.Equal(t, "cabin hello", caption)
}

func TestRouteRegistryError(t *testing.T) {
	registry := new(mockRegistry)
	registry.On("ActiveTargets", "+471").Return(nil, errors.New("corrupt state"))

	cr := NewCaptionRouter(registry, true, true)
	_, _, err := cr.Route("+471", "hello")
	assert.Error(t, err)
}

func TestRouteCaptionTargeting(t *testing.T) {
	tests := []struct {
		name        string
		subs        []models.Subscription
		caption     string
		strip       bool
		wantTargets []string
		wantCaption string
	}{
		{
			name:        "first word matches one sub, stripped",
			subs:        activeSubs("cabin", "office"),
			caption:     "cabin hello there",
			strip:       true,
			wantTargets: []string{"cabin"},
			wantCaption: "hello there",
		},
		{
			name:        "first word matches one sub, strip disabled",
			subs:        activeSubs("cabin", "office"),
			caption:     "cabin hello there",
			strip:       false,
			wantTargets: []string{"cabin"},
			wantCaption: "cabin hello there",
		},
		{
			name:        "match is case insensitive",
			subs:        activeSubs("Cabin"),
			caption:     "CABIN photo",
			strip:       true,
			wantTargets: []string{"Cabin"},
			wantCaption: "photo",
		},
		{
			name:        "no match broadcasts unchanged",
			subs:        activeSubs("cabin", "office"),
			caption:     "hello everyone",
			strip:       true,
			wantTargets: []string{"cabin", "office"},
			wantCaption: "hello everyone",
		},
		{
			name:        "empty caption broadcasts",
			subs:        activeSubs("cabin", "office"),
			caption:     "",
			strip:       true,
			wantTargets: []string{"cabin", "office"},
			wantCaption: "",
		},
		{
			name:        "caption equal to name routes with empty caption",
			subs:        activeSubs("cabin"),
			caption:     "cabin",
			strip:       true,
			wantTargets: []string{"cabin"},
			wantCaption: "",
		},
		{
			name:        "leading whitespace before target word",
			subs:        activeSubs("cabin"),
			caption:     "   cabin  hi",
			strip:       true,
			wantTargets: []string{"cabin"},
			wantCaption: "hi",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			registry := new(mockRegistry)
			registry.On("ActiveTargets", "+471").Return(tt.subs, nil)

			cr := NewCaptionRouter(registry, true, tt.strip)
			targets, caption, err := cr.Route("+471", tt.caption)
			require.NoError(t, err)

			var names []string
			for _, tg := range targets {
				names = append(names, tg.Name)
			}
			assert.Equal(t, tt.wantTargets, names)
			assert.Equal(t, tt.wantCaption, caption)
		})
	}
}

func TestRouteTargetingDisabledBroadcasts(t *testing.T) {
	registry := new(mockRegistry)
	registry.On("ActiveTargets", "+471").Return(activeSubs("cabin", "office"), nil)

	cr := NewCaptionRouter(registry, false, true)
	targets, caption, err := cr.Route("+471", "cabin hello")
	require.NoError(t, err)
	assert.Len(t, targets, 2)
	assert.Equal(t, "cabin hello", caption)
}

func TestSplitFirstWord(t *testing.T) {
	tests := []struct {
		in        string
		wantFirst string
		wantRest  string
	}{
		{"", "", ""},
		{"one", "one", ""},
		{"one two three", "one", "two three"},
		{"  padded   middle  ", "padded", "middle"},
		{"tab\tseparated", "tab", "separated"},
	}
	for _, tt := range tests {
		first, rest := splitFirstWord(tt.in)
		assert.Equal(t, tt.wantFirst, first, tt.in)
		assert.Equal(t, tt.wantRest, rest, tt.in)
	}
}
