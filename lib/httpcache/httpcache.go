// Package httpcache is a read-through response cache keyed by full
// request signature (method + normalized URL + body digest) with a
// fixed expiry. it knows nothing about what the responses mean.
package httpcache

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"net/url"
	"time"

	"github.com/PuerkitoBio/purell"
	"github.com/dgraph-io/badger/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("lib/httpcache")

var ErrNotFound = badger.ErrKeyNotFound

type entry struct {
	Body      []byte
	ExpiresAt int64
}

type Cache struct {
	db       *badger.DB
	lifetime time.Duration
}

func New(db *badger.DB, lifetime time.Duration) *Cache {
	return &Cache{db: db, lifetime: lifetime}
}

func (c *Cache) key(method, rawurl string, body []byte) (string, error) {
	link, err := url.Parse(rawurl)
	if err != nil {
		return "", err
	}
	normalized := purell.NormalizeURL(
		link,
		purell.FlagsSafe|
			purell.FlagsUsuallySafeNonGreedy|
			purell.FlagRemoveDirectoryIndex|
			purell.FlagRemoveFragment|
			purell.FlagSortQuery,
	)
	digest := sha256.Sum256(body)
	return method + ":" + normalized + ":" + hex.EncodeToString(digest[:]), nil
}

func (c *Cache) Get(ctx context.Context, method, rawurl string, body []byte) ([]byte, error) {
	ctx, span := tracer.Start(ctx, "get")
	defer span.End()

	key, err := c.key(method, rawurl, body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to create cache key")
		return nil, err
	}
	span.SetAttributes(attribute.KeyValue{
		Key:   "cache_key",
		Value: attribute.StringValue(key),
	})

	tx := c.db.NewTransaction(false)
	defer tx.Discard()
	item, err := tx.Get([]byte(key))
	if err == badger.ErrKeyNotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to read item from badger")
		return nil, err
	}
	serialized, err := item.ValueCopy(nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to copy cached item")
		return nil, err
	}

	decoder := gob.NewDecoder(bytes.NewBuffer(serialized))

	var cached entry
	err = decoder.Decode(&cached)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to deserialize cached item")
		return nil, err
	}

	if time.Now().Unix() >= cached.ExpiresAt {
		span.AddEvent("delete expired cache key", trace.WithAttributes(attribute.KeyValue{
			Key:   "key",
			Value: attribute.StringValue(key),
		}))

		tx := c.db.NewTransaction(true)
		defer tx.Commit()

		err = tx.Delete([]byte(key))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to delete expired key")
			return nil, ErrNotFound
		}

		span.SetStatus(codes.Ok, "CACHE EXPIRED")
		return nil, ErrNotFound
	}

	span.AddEvent(
		"successfully returned cached response",
		trace.WithAttributes(attribute.KeyValue{
			Key:   "contentlength",
			Value: attribute.IntValue(len(cached.Body)),
		}),
	)

	return cached.Body, nil
}

func (c *Cache) Set(ctx context.Context, method, rawurl string, body, response []byte) error {
	ctx, span := tracer.Start(ctx, "set")
	defer span.End()

	key, err := c.key(method, rawurl, body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to create cache key")
		return err
	}
	span.SetAttributes(attribute.KeyValue{
		Key:   "cache_key",
		Value: attribute.StringValue(key),
	})

	serialized := bytes.NewBuffer(nil)
	encoder := gob.NewEncoder(serialized)
	err = encoder.Encode(entry{
		Body:      response,
		ExpiresAt: time.Now().Add(c.lifetime).Unix(),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to serialize response")
		return err
	}

	tx := c.db.NewTransaction(true)
	defer tx.Commit()

	err = tx.Set([]byte(key), serialized.Bytes())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to set badger item")
		return err
	}

	return nil
}
