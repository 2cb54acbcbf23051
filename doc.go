/*
Package copyexamplegen copies existing serialized-example files into the
split layout of an Examples artifact, so that examples produced by an earlier
pipeline run can be reused without regenerating them.

The generator takes a JSON object mapping split labels to source locations:

	{"train": "s3://bucket/examples/Split-train/", "eval": "/data/eval/"}

Every file directly inside a source location whose name ends in the
configured suffix (".gz" by default) is copied to <output>/Split-<label>/.
Sources and the output may be local directories or S3 locations, in any
combination.

A Generator can be used as a library, run from the command line through
Main, or deployed as an AWS Lambda function; Main detects when it runs inside
Lambda and serves requests instead of parsing flags.
*/
package copyexamplegen
