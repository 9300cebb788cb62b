package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/joshuapare/heapkit/internal/format"
	"github.com/joshuapare/heapkit/internal/mmfile"
	"github.com/joshuapare/heapkit/verify"
)

var inspectRaw bool

func init() {
	cmd := newInspectCmd()
	cmd.Flags().BoolVar(&inspectRaw, "raw", false, "Read an uncompressed heap file (as left by --arena file)")
	rootCmd.AddCommand(cmd)
}

func newInspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect <snapshot>",
		Short: "Verify a saved heap snapshot",
		Long: `The inspect command decompresses a snapshot written by "mmctl run
--snapshot", or maps a raw heap file with --raw, and checks the image: prologue, block sizes and alignment,
header/footer agreement, coalescing and the epilogue. No allocator state is
needed, so free list links are not checked.

Example:
  mmctl inspect binary.heap.br
  mmctl inspect binary.heap.br --json
  mmctl inspect --raw /tmp/binary.rep-123456.heap`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(args)
		},
	}
	return cmd
}

type inspectResult struct {
	File       string `json:"file"`
	ImageSize  int    `json:"image_size"`
	Valid      bool   `json:"valid"`
	Blocks     int    `json:"blocks"`
	FreeBlocks int    `json:"free_blocks"`
	UsedBytes  int    `json:"used_bytes"`
	FreeBytes  int    `json:"free_bytes"`
	Error      string `json:"error,omitempty"`
	ErrorType  string `json:"error_type,omitempty"`
}

func runInspect(args []string) error {
	path := args[0]
	printVerbose("Reading snapshot: %s\n", path)

	image, closeImage, err := loadImage(path)
	if err != nil {
		return err
	}
	defer closeImage()

	res := inspectResult{File: path, ImageSize: len(image)}
	chain, verr := inspectImage(image)
	if verr == nil {
		res.Valid = true
		res.Blocks = len(chain.Blocks)
		res.FreeBlocks = len(chain.Free)
		res.UsedBytes = chain.UsedBytes
		res.FreeBytes = chain.FreeBytes
	} else {
		res.Error = verr.Error()
		var ve *verify.ValidationError
		if errors.As(verr, &ve) {
			res.ErrorType = ve.Type
		}
	}

	if jsonOut {
		if err := printJSON(res); err != nil {
			return err
		}
		return verr
	}

	printInfo("\nInspecting %s (%d bytes)...\n\n", path, len(image))
	if verr != nil {
		printInfo("  ✗ %v\n", verr)
		printInfo("\nResult: ✗ INVALID\n")
		return verr
	}
	printInfo("  ✓ Prologue and epilogue intact\n")
	printInfo("  ✓ %d blocks (%d free), %d bytes used, %d bytes free\n",
		res.Blocks, res.FreeBlocks, res.UsedBytes, res.FreeBytes)
	printInfo("\nResult: ✓ VALID\n")
	return nil
}

func inspectImage(image []byte) (*verify.Chain, error) {
	if err := verify.Prologue(image, 0); err != nil {
		return nil, err
	}
	return verify.BlockChain(image, format.FirstPayloadOffset)
}

// loadImage reads a snapshot, or maps a raw heap file when --raw is set.
func loadImage(path string) ([]byte, func() error, error) {
	if !inspectRaw {
		image, err := readSnapshot(path)
		return image, func() error { return nil }, err
	}
	img, err := mmfile.Open(path)
	if err != nil {
		return nil, nil, err
	}
	return img.Bytes(), img.Close, nil
}
