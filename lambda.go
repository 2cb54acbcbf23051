package copyexamplegen

import (
	"context"
	"os"
)

// copyRequest is the payload of a Lambda invocation
type copyRequest struct {
	InputJSON string `json:"input_json_str"`
	OutputURI string `json:"output_uri"`
}

// runningInLambda infers if the program is running in AWS lambda via inspection of the environment
func runningInLambda() bool {
	expectedEnvVars := []string{"LAMBDA_TASK_ROOT", "AWS_EXECUTION_ENV", "LAMBDA_RUNTIME_DIR"}
	for _, envVar := range expectedEnvVars {
		if os.Getenv(envVar) == "" {
			return false
		}
	}
	return true
}

func (g *Generator) handleRequest(ctx context.Context, req copyRequest) (*Examples, error) {
	artifact := &Examples{URI: req.OutputURI}
	if err := g.Run(ctx, req.InputJSON, artifact); err != nil {
		g.log.WithError(err).Error("Copy request failed")
		return nil, err
	}
	g.log.Debugf("Copied splits %s into %s", artifact.SplitNames, artifact.URI)
	return artifact, nil
}
