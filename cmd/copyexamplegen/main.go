// Command copyexamplegen copies existing example files into a new Examples
// artifact.
//
//	copyexamplegen -o s3://bucket/artifacts/examples/1 \
//	    '{"train": "s3://bucket/old/Split-train/", "eval": "s3://bucket/old/Split-eval/"}'
package main

import "github.com/bcongdon/copyexamplegen"

func main() {
	copyexamplegen.Main()
}
