package utils

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringOrNil(t *testing.T) {
	assert.Nil(t, StringOrNil("   "))
	assert.Equal(t, "Court 1", *StringOrNil(" Court 1 "))
}

func TestUUIDOrNil(t *testing.T) {
	id, err := UUIDOrNil("")
	require.NoError(t, err)
	assert.Nil(t, id)

	want := uuid.New()
	id, err = UUIDOrNil(want.String())
	require.NoError(t, err)
	assert.Equal(t, want, *id)

	_, err = UUIDOrNil("not-a-uuid")
	assert.Error(t, err)
}

func TestSameUUID(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	assert.True(t, SameUUID(nil, nil))
	assert.True(t, SameUUID(&a, Ptr(a)))
	assert.False(t, SameUUID(&a, &b))
	assert.False(t, SameUUID(&a, nil))
	assert.Equal(t, 0, OrZero[int](nil))
}
