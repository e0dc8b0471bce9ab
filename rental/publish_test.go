package rental

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentrentorg/libagentrent-go/custody"
	"github.com/agentrentorg/libagentrent-go/records"
)

func TestNewServiceValidation(t *testing.T) {
	fx := newFixture()
	owner := newSigner(t)
	cli, err := custody.NewClient(fx.node, 0)
	require.NoError(t, err)

	base := Config{
		Records: fx.store,
		Custody: cli,
		Content: fx.content,
		Signer:  owner,
		Domain:  testDomain,
	}

	if _, err := NewService(base); err != nil {
		t.Fatalf("minimal config should build: %v", err)
	}

	for name, breakIt := range map[string]func(*Config){
		"records": func(c *Config) { c.Records = nil },
		"custody": func(c *Config) { c.Custody = nil },
		"content": func(c *Config) { c.Content = nil },
		"signer":  func(c *Config) { c.Signer = nil },
		"domain":  func(c *Config) { c.Domain = "" },
	} {
		t.Run(name, func(t *testing.T) {
			cfg := base
			breakIt(&cfg)
			_, err := NewService(cfg)
			assert.ErrorIs(t, err, ErrNilDependency)
		})
	}
}

func TestPublish(t *testing.T) {
	fx := newFixture()
	owner := newSigner(t)

	var states []PublishState
	svc := fx.newTestService(t, owner, withEvents(Events{
		PublishStateChanged: func(s PublishState) { states = append(states, s) },
	}))

	res, err := svc.Publish(context.Background(), PublishRequest{
		Name:     "hello.txt",
		Data:     []byte("hello"),
		Price:    "0.05",
		Metadata: records.Metadata{Title: "hello", Category: "text"},
	})
	require.NoError(t, err)
	require.NoError(t, res.RegisterErr)
	require.NoError(t, res.CustodyErr)
	assert.Nil(t, res.Key)
	assert.Equal(t, "0xregister", res.TxHash)

	rec := res.Record
	require.NotNil(t, rec)
	assert.Equal(t, owner.Address(), rec.Owner)
	assert.Equal(t, "0.05", rec.Price)
	assert.True(t, rec.KeyCustodyPersisted)
	assert.False(t, rec.PolicyDegraded)
	require.Len(t, rec.WrappedKeyEntries, 1)
	assert.Empty(t, rec.WrappedKeyEntries[0].GrantedTo)

	// The ciphertext in the store is not the plaintext.
	blob, err := fx.content.Fetch(context.Background(), rec.ContentID)
	require.NoError(t, err)
	assert.NotContains(t, string(blob), "hello")

	// On-chain registration happened with the parsed price.
	info, err := fx.chain.ContentInfo(context.Background(), rec.ContentID)
	require.NoError(t, err)
	assert.Equal(t, "50000000000000000", info.Price.String())

	assert.Equal(t, []PublishState{
		PublishEncrypting, PublishUploading, PublishRegistering,
		PublishPersistingKey, PublishDone,
	}, states)

	// The record landed in the store.
	stored, err := fx.store.Get(rec.ID)
	require.NoError(t, err)
	assert.True(t, stored.Rentable())
}

func TestPublishRegistrationFailureIsNonFatal(t *testing.T) {
	fx := newFixture()
	fx.chain.RegisterErr = assert.AnError
	svc := fx.newTestService(t, newSigner(t))

	res, err := svc.Publish(context.Background(), PublishRequest{
		Name:     "hello.txt",
		Data:     []byte("hello"),
		Price:    "0.05",
		Metadata: records.Metadata{Title: "hello"},
	})
	require.NoError(t, err)
	assert.ErrorIs(t, res.RegisterErr, assert.AnError)
	assert.Empty(t, res.TxHash)

	// Key custody still happened; the record is healthy.
	require.NoError(t, res.CustodyErr)
	assert.True(t, res.Record.KeyCustodyPersisted)
}

func TestPublishWithoutLedgerIsPolicyDegraded(t *testing.T) {
	fx := newFixture()

	var states []PublishState
	svc := fx.newTestService(t, newSigner(t), withoutLedger(), withEvents(Events{
		PublishStateChanged: func(s PublishState) { states = append(states, s) },
	}))

	res, err := svc.Publish(context.Background(), PublishRequest{
		Name:     "hello.txt",
		Data:     []byte("hello"),
		Price:    "0.05",
		Metadata: records.Metadata{Title: "hello"},
	})
	require.NoError(t, err)
	assert.True(t, res.Record.PolicyDegraded)
	assert.NotContains(t, states, PublishRegistering)
}

func TestPublishValidation(t *testing.T) {
	fx := newFixture()
	svc := fx.newTestService(t, newSigner(t))

	cases := map[string]PublishRequest{
		"empty name":  {Data: []byte("x"), Price: "1", Metadata: records.Metadata{Title: "t"}},
		"empty data":  {Name: "a.txt", Price: "1", Metadata: records.Metadata{Title: "t"}},
		"bad price":   {Name: "a.txt", Data: []byte("x"), Price: "-3", Metadata: records.Metadata{Title: "t"}},
		"empty price": {Name: "a.txt", Data: []byte("x"), Metadata: records.Metadata{Title: "t"}},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Publish(context.Background(), req)
			assert.ErrorIs(t, err, ErrInvalidRequest)
		})
	}
}

func TestPublishPersistExhaustedCreatesLegacyRecord(t *testing.T) {
	fx := newFixture()
	fx.node.WrapFailures = 100 // all attempts fail

	var states []PublishState
	svc := fx.newTestService(t, newSigner(t), withEvents(Events{
		PublishStateChanged: func(s PublishState) { states = append(states, s) },
	}))

	res, err := svc.Publish(context.Background(), PublishRequest{
		Name:     "hello.txt",
		Data:     []byte("hello"),
		Price:    "0.05",
		Metadata: records.Metadata{Title: "hello"},
	})
	require.NoError(t, err)
	require.ErrorIs(t, res.CustodyErr, custody.ErrPersistFailed)
	require.NotNil(t, res.Key, "raw key must be exposed for a persist retry")

	rec := res.Record
	assert.False(t, rec.KeyCustodyPersisted)
	assert.Empty(t, rec.WrappedKeyEntries)
	assert.False(t, rec.Rentable())
	assert.Contains(t, states, PublishDoneDegraded)
	assert.NotContains(t, states, PublishDone)
}

func TestRetryPersist(t *testing.T) {
	fx := newFixture()
	fx.node.WrapFailures = 100
	svc := fx.newTestService(t, newSigner(t))

	res, err := svc.Publish(context.Background(), PublishRequest{
		Name:     "hello.txt",
		Data:     []byte("hello"),
		Price:    "0.05",
		Metadata: records.Metadata{Title: "hello"},
	})
	require.NoError(t, err)
	require.NotNil(t, res.CustodyErr)

	// Custody network recovers.
	fx.node.WrapFailures = 0

	require.NoError(t, svc.RetryPersist(context.Background(), res.Record.ID, res.Key))

	rec, err := fx.store.Get(res.Record.ID)
	require.NoError(t, err)
	assert.True(t, rec.KeyCustodyPersisted)
	require.Len(t, rec.WrappedKeyEntries, 1, "exactly one entry appended")

	// A second retry against a healthy record is rejected.
	err = svc.RetryPersist(context.Background(), res.Record.ID, res.Key)
	assert.ErrorIs(t, err, ErrAlreadyPersisted)
}

func TestRetryPersistValidation(t *testing.T) {
	fx := newFixture()
	svc := fx.newTestService(t, newSigner(t))

	err := svc.RetryPersist(context.Background(), "some-id", nil)
	assert.ErrorIs(t, err, ErrInvalidRequest)

	err = svc.RetryPersist(context.Background(), "missing", []byte("key"))
	assert.ErrorIs(t, err, records.ErrNotFound)
}
