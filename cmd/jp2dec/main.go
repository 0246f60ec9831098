// jp2dec decodes JP2 files and raw JPEG 2000 codestreams to PGX planes.
package main

import (
	"context"
	"os"

	"github.com/jp2kit/go-jp2-codec/codec"
	"github.com/jp2kit/go-jp2-codec/jpeg2000"
)

// gitsha is stamped by the build.
var gitsha = "dev"

func main() {
	codec.Register(jpeg2000.NewCodec())

	root := NewRoot(context.Background(), gitsha)
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
