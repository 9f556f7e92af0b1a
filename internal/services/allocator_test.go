package services

import (
	"context"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockCodeProber struct {
	mock.Mock
}

func (m *MockCodeProber) ExistsByCode(ctx context.Context, code string) (bool, error) {
	args := m.Called(ctx, code)
	return args.Bool(0), args.Error(1)
}

// fakeProber tracks a taken set without mock bookkeeping; handy for
// property-style loops.
type fakeProber struct {
	taken map[string]bool
}

func (f *fakeProber) ExistsByCode(_ context.Context, code string) (bool, error) {
	return f.taken[code], nil
}

var codeFormat = regexp.MustCompile(`^[A-Z][1-9][0-9]{2}$`)

func TestCodeAllocator_Generate_Format(t *testing.T) {
	allocator := NewCodeAllocator(&fakeProber{taken: map[string]bool{}}, 0)
	ctx := context.Background()

	for i := 0; i < 500; i++ {
		code, err := allocator.Generate(ctx)
		require.NoError(t, err)
		assert.Regexp(t, codeFormat, code)
		assert.Len(t, code, 4)
	}
}

func TestCodeAllocator_Generate_SkipsTakenCodes(t *testing.T) {
	prober := &fakeProber{taken: map[string]bool{}}
	allocator := NewCodeAllocator(prober, 0)
	ctx := context.Background()

	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		code, err := allocator.Generate(ctx)
		require.NoError(t, err)
		assert.False(t, seen[code], "allocator returned a taken code: %s", code)
		seen[code] = true
		prober.taken[code] = true
	}
}

func TestCodeAllocator_Generate_Exhaustion(t *testing.T) {
	prober := new(MockCodeProber)
	prober.On("ExistsByCode", mock.Anything, mock.AnythingOfType("string")).Return(true, nil)

	allocator := NewCodeAllocator(prober, 10)

	_, err := allocator.Generate(context.Background())
	assert.ErrorIs(t, err, ErrAllocationExhausted)
	prober.AssertNumberOfCalls(t, "ExistsByCode", 10)
}

func TestCodeAllocator_Generate_ProbeError(t *testing.T) {
	prober := new(MockCodeProber)
	prober.On("ExistsByCode", mock.Anything, mock.AnythingOfType("string")).Return(false, assert.AnError)

	allocator := NewCodeAllocator(prober, 10)

	_, err := allocator.Generate(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
	prober.AssertNumberOfCalls(t, "ExistsByCode", 1)
}
