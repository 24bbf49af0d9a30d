package utils

import (
	"context"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestMongoConfigDefaults(t *testing.T) {
	c := MongoConfig{}.withDefaults()
	if c.ConnectTimeout != 10*time.Second {
		t.Fatalf("expected 10s connect timeout, got %v", c.ConnectTimeout)
	}
	if c.MaxPoolSize != 50 {
		t.Fatalf("expected pool size 50, got %d", c.MaxPoolSize)
	}
	if c.PingTimeout != 5*time.Second {
		t.Fatalf("expected 5s ping timeout, got %v", c.PingTimeout)
	}
}

func TestOpenMongoRequiresURI(t *testing.T) {
	if _, _, err := OpenMongo(context.Background(), MongoConfig{Database: "x"}); err == nil {
		t.Fatalf("expected error without uri")
	}
	if _, _, err := OpenMongo(context.Background(), MongoConfig{URI: "mongodb://localhost"}); err == nil {
		t.Fatalf("expected error without database")
	}
}

func TestParseObjectID(t *testing.T) {
	oid := primitive.NewObjectID()
	got, ok := ParseObjectID(oid.Hex())
	if !ok || got != oid {
		t.Fatalf("expected round trip of %s", oid.Hex())
	}
	if _, ok := ParseObjectID("u1"); ok {
		t.Fatalf("expected malformed id to be rejected")
	}
	ids := ParseObjectIDs([]string{oid.Hex(), "bad"})
	if len(ids) != 1 {
		t.Fatalf("expected 1 parsed id, got %d", len(ids))
	}
}

func TestPage(t *testing.T) {
	skip, size, page, limit := Page(3, 10)
	if skip != 20 || size != 10 || page != 3 || limit != 10 {
		t.Fatalf("unexpected page math: %d %d %d %d", skip, size, page, limit)
	}
	if _, size, _, _ := Page(0, 1000); size != 100 {
		t.Fatalf("expected limit capped at 100, got %d", size)
	}
	if got := TotalPages(21, 10); got != 3 {
		t.Fatalf("expected 3 pages, got %d", got)
	}
}
