/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package main

import (
	"context"
	"sync"
	"time"

	"github.com/mobilize-transporte/avisos/internal/announcement"
	"github.com/mobilize-transporte/avisos/internal/config"
	"github.com/mobilize-transporte/avisos/internal/credential"
	"github.com/mobilize-transporte/avisos/internal/freshness"
	"github.com/mobilize-transporte/avisos/internal/inbox"
	"github.com/mobilize-transporte/avisos/internal/poller"
	"github.com/mobilize-transporte/avisos/internal/prefs"
	"github.com/mobilize-transporte/avisos/internal/remote"
	"github.com/mobilize-transporte/avisos/internal/version"
)

// deps builds the shared components lazily, after the root command has
// loaded the configuration.
type deps struct {
	mu     sync.Mutex
	store  prefs.Store
	tokens *credential.Store
}

var appDeps = &deps{}

func (d *deps) prefs(ctx context.Context) (prefs.Store, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.store != nil {
		return d.store, nil
	}
	store, err := prefs.NewFromConfig(ctx)
	if err != nil {
		return nil, err
	}
	d.store = store
	return store, nil
}

func (d *deps) tokenStore() *credential.Store {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.tokens == nil {
		d.tokens = credential.NewStore()
	}
	return d.tokens
}

func (d *deps) client() *remote.Client {
	return remote.NewFromConfig(d.tokenStore())
}

// Announcements returns the legacy announcement source.
func (d *deps) Announcements(ctx context.Context) (announcementStore, error) {
	src, err := d.announcements(ctx)
	if err != nil {
		return nil, err
	}
	return src, nil
}

func (d *deps) announcements(ctx context.Context) (*announcement.Source, error) {
	store, err := d.prefs(ctx)
	if err != nil {
		return nil, err
	}
	ttl := time.Duration(config.GetInt("announcement_ttl_seconds", int(announcement.DefaultTTL/time.Second))) * time.Second
	return announcement.NewSource(store, announcement.WithTTL(ttl)), nil
}

// NewInbox wires an inbox over the configured backend and preferences.
func (d *deps) NewInbox(ctx context.Context, recorder inbox.Recorder) (*inbox.Inbox, error) {
	store, err := d.prefs(ctx)
	if err != nil {
		return nil, err
	}
	legacy, err := d.announcements(ctx)
	if err != nil {
		return nil, err
	}
	return inbox.New(inbox.Options{
		Fetcher:  d.client(),
		Store:    store,
		Legacy:   legacy,
		Banner:   config.Get("banner_source", inbox.BannerAuto),
		Recorder: recorder,
	}), nil
}

// NewPoller creates a poller driving tick at the configured interval.
func (d *deps) NewPoller(tick poller.TickFunc) *poller.Poller {
	interval := time.Duration(config.GetInt("poll_interval_seconds", int(poller.DefaultInterval/time.Second))) * time.Second
	return poller.New(tick, poller.WithInterval(interval))
}

// Poll runs a single refresh and returns the resulting snapshot.
func (d *deps) Poll(ctx context.Context) (inbox.Snapshot, error) {
	ib, err := d.NewInbox(ctx, nil)
	if err != nil {
		return inbox.Snapshot{}, err
	}
	err = ib.Refresh(ctx)
	return ib.Snapshot(), err
}

// Acknowledge advances the stored watermark to now.
func (d *deps) Acknowledge(ctx context.Context) (freshness.Watermark, error) {
	ib, err := d.NewInbox(ctx, nil)
	if err != nil {
		return 0, err
	}
	ib.Acknowledge(ctx)
	return ib.Snapshot().Watermark, nil
}

// Publish sends a notification to the backend.
func (d *deps) Publish(ctx context.Context, req remote.PublishRequest) (remote.PublishResult, error) {
	return d.client().PublishNotification(ctx, req)
}

// SetToken stores the bearer token.
func (d *deps) SetToken(token string) error {
	return d.tokenStore().SetToken(token)
}

// ClearToken removes the bearer token.
func (d *deps) ClearToken() error {
	return d.tokenStore().ClearToken()
}

// Version returns the build version.
func (d *deps) Version() string {
	return version.String()
}

// Close releases the preference store.
func (d *deps) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.store == nil {
		return nil
	}
	err := d.store.Close()
	d.store = nil
	return err
}
