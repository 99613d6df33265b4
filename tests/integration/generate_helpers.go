//go:build integration
// +build integration

package integration

import (
	"context"
	"testing"

	"github.com/tordrt/dbcontent"
	"github.com/tordrt/dbcontent/internal/content"
)

// verifyGenerate generates the document for a shop database and checks the
// orders to users link.
func verifyGenerate(t *testing.T, ctx context.Context, url string) *dbcontent.Document {
	t.Helper()

	cfg, err := dbcontent.Setup(func(c *dbcontent.Config) {
		c.SetConnection(url)
		c.SetSpace("integration")
	})
	if err != nil {
		t.Fatalf("Failed to set up config: %v", err)
	}

	doc, err := dbcontent.NewGenerator(cfg).Regenerate(ctx)
	if err != nil {
		t.Fatalf("Failed to generate document: %v", err)
	}

	for _, name := range shopTables {
		if doc.ContentType(name) == nil {
			t.Errorf("Expected content type %s not found", name)
		}
	}

	orders := doc.ContentType("orders")
	if orders == nil {
		t.FailNow()
	}
	user := orders.Field("user")
	if user == nil {
		t.Fatal("Expected link field user on orders")
	}
	if user.Type != content.FieldLink {
		t.Errorf("Expected user to be a Link field, got %s", user.Type)
	}

	if _, err := dbcontent.Serialize(doc); err != nil {
		t.Errorf("Failed to serialize document: %v", err)
	}
	return doc
}
