package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestIsWriteConflict(t *testing.T) {
	transient := []string{"TransientTransactionError"}

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "write conflict command error",
			err:  mongo.CommandError{Code: writeConflictCode, Name: "WriteConflict", Labels: transient},
			want: true,
		},
		{
			name: "wrapped write conflict",
			err:  fmt.Errorf("failed to lock inventory unit: %w", mongo.CommandError{Code: writeConflictCode}),
			want: true,
		},
		{
			name: "write conflict write error",
			err:  mongo.WriteException{WriteErrors: mongo.WriteErrors{{Code: writeConflictCode}}},
			want: true,
		},
		{
			name: "duplicate lock upsert",
			err:  mongo.WriteException{WriteErrors: mongo.WriteErrors{{Code: 11000, Message: "E11000 duplicate key error"}}},
			want: true,
		},
		{
			name: "transient network error",
			err:  mongo.CommandError{Code: 6, Name: "HostUnreachable", Labels: transient},
			want: false,
		},
		{
			name: "transient write exception without conflict",
			err:  mongo.WriteException{Labels: transient, WriteErrors: mongo.WriteErrors{{Code: 91}}},
			want: false,
		},
		{
			name: "plain error",
			err:  errors.New("connection reset by peer"),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isWriteConflict(tt.err))
		})
	}
}
