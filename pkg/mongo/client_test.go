package mongo_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/authcore/pkg/mongo"
)

func TestNew(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cfg     mongo.Config
		wantErr error
	}{
		{"missing url", mongo.Config{Database: "db"}, mongo.ErrEmptyConnectionURL},
		{"missing database", mongo.Config{ConnectionURL: "mongodb://localhost:27017"}, mongo.ErrEmptyDatabase},
		{"malformed url", mongo.Config{ConnectionURL: "not-a-mongo-url", Database: "db"}, mongo.ErrFailedToConnectToMongo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := mongo.NewWithDatabase(context.Background(), tt.cfg)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
