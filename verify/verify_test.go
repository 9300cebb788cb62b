package verify

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/heapkit/internal/format"
)

// buildImage lays out a heap image with the given blocks after the
// prologue. A negative size marks a free block.
func buildImage(t *testing.T, sizes ...int) []byte {
	t.Helper()

	total := format.InitialHeapSize
	for _, s := range sizes {
		total += abs(s)
	}
	data := make([]byte, total)
	format.PutTag(data, format.PrologueHeaderOff, format.PrologueTag)
	format.PutTag(data, format.PrologueFooterOff, format.PrologueTag)

	bp := format.FirstPayloadOffset
	for _, s := range sizes {
		tag := format.Encode(abs(s), s > 0)
		format.PutTag(data, bp-format.WordSize, tag)
		format.PutTag(data, bp+abs(s)-format.Overhead, tag)
		bp += abs(s)
	}
	format.PutTag(data, bp-format.WordSize, format.EpilogueTag)
	require.Len(t, data, bp)
	return data
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func requireType(t *testing.T, err error, typ string) {
	t.Helper()
	require.Error(t, err)
	var ve *ValidationError
	require.True(t, errors.As(err, &ve), "expected *ValidationError, got %T", err)
	require.Equal(t, typ, ve.Type, "error: %v", err)
}

func TestAllInvariants_Empty(t *testing.T) {
	require.NoError(t, AllInvariants(buildImage(t)))
}

func TestBlockChain_Valid(t *testing.T) {
	data := buildImage(t, 48, -64, 32, -4128, 160)

	c, err := BlockChain(data, format.FirstPayloadOffset)
	require.NoError(t, err)
	require.Len(t, c.Blocks, 5)
	require.Equal(t, map[int]int{32 + 48: 64, 32 + 48 + 64 + 32: 4128}, c.Free)
	require.Equal(t, 64+4128, c.FreeBytes)
	require.Equal(t, 48+32+160, c.UsedBytes)
	require.Equal(t, len(data)-format.WordSize, c.Epilogue)
}

func TestBlockChain_Uncoalesced(t *testing.T) {
	data := buildImage(t, 48, -64, -32)
	_, err := BlockChain(data, format.FirstPayloadOffset)
	requireType(t, err, "Uncoalesced")
}

func TestBlockChain_TagMismatch(t *testing.T) {
	data := buildImage(t, -64, 32)
	format.PutTag(data, format.FirstPayloadOffset+64-format.Overhead, format.Encode(48, false))
	_, err := BlockChain(data, format.FirstPayloadOffset)
	requireType(t, err, "TagMismatch")
}

func TestBlockChain_AllocatedFooterNotChecked(t *testing.T) {
	data := buildImage(t, 64, 32)
	format.PutU64(data, format.FirstPayloadOffset+64-format.Overhead, 0xDEAD)
	_, err := BlockChain(data, format.FirstPayloadOffset)
	require.NoError(t, err)
}

func TestBlockChain_BadSize(t *testing.T) {
	data := buildImage(t, 64, 32)
	format.PutTag(data, format.FirstPayloadOffset-format.WordSize, format.Encode(16, true))
	_, err := BlockChain(data, format.FirstPayloadOffset)
	requireType(t, err, "BlockSize")
}

func TestBlockChain_StatusNibble(t *testing.T) {
	data := buildImage(t, 64)
	format.PutU64(data, format.FirstPayloadOffset-format.WordSize, 64|0x5)
	_, err := BlockChain(data, format.FirstPayloadOffset)
	requireType(t, err, "StatusNibble")
}

func TestBlockChain_RunsPastEnd(t *testing.T) {
	data := buildImage(t, 64)
	format.PutTag(data, format.FirstPayloadOffset-format.WordSize, format.Encode(4096, true))
	_, err := BlockChain(data, format.FirstPayloadOffset)
	requireType(t, err, "FooterBounds")
}

func TestBlockChain_MissingEpilogue(t *testing.T) {
	data := buildImage(t, 64)
	format.PutU64(data, len(data)-format.WordSize, 0)
	_, err := BlockChain(data, format.FirstPayloadOffset)
	requireType(t, err, "Epilogue")
}

func TestBlockChain_TruncatedImage(t *testing.T) {
	data := buildImage(t, 64)
	_, err := BlockChain(data[:40], format.FirstPayloadOffset)
	requireType(t, err, "FooterBounds")

	_, err = BlockChain(data[:20], format.FirstPayloadOffset)
	requireType(t, err, "HeaderBounds")
}

func TestPrologue(t *testing.T) {
	data := buildImage(t, 32)
	require.NoError(t, Prologue(data, 0))

	format.PutTag(data, format.PrologueFooterOff, format.Encode(32, true))
	requireType(t, Prologue(data, 0), "Prologue")
	requireType(t, AllInvariants(data), "Prologue")

	requireType(t, Prologue(make([]byte, 8), 0), "Prologue")
}

func TestValidationError_String(t *testing.T) {
	err := &ValidationError{Type: "TagMismatch", Message: "boom", Offset: 0x40}
	require.Equal(t, "TagMismatch at offset 0x40: boom", err.Error())

	err = &ValidationError{Type: "Prologue", Message: "short", Offset: -1}
	require.Equal(t, "Prologue: short", err.Error())
}
