package project

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecodeMetadataRejectsGarbage(t *testing.T) {
	_, err := decodeMetadata([]byte("not json"))
	assert.ErrorIs(t, err, ErrInvalidMetadata)
}
