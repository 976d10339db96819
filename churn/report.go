package churn

import (
	"fmt"
	"slices"
	"strings"

	"github.com/kbukum/mlopskit/serving"
)

const noServiceMessage = "No Seldon prediction server is currently running. " +
	"The deployment pipeline must run first to train a model and deploy it. " +
	"Execute the same command with the `--deploy` argument to deploy a model."

// statusMessage describes the newest running record, or the newest record
// when none runs. Records come newest first, so a server left behind by a
// timed-out deploy does not hide an older one still serving. The message is
// empty when the described server is neither running nor failed.
func statusMessage(records []serving.ServiceRecord) string {
	if len(records) == 0 {
		return noServiceMessage
	}
	rec := records[0]
	if i := slices.IndexFunc(records, serving.ServiceRecord.IsRunning); i >= 0 {
		rec = records[i]
	}
	switch {
	case rec.IsRunning():
		return strings.Join([]string{
			"The Seldon prediction server is running remotely as a Kubernetes service and accepts inference requests at:",
			"    " + rec.PredictionURL,
			fmt.Sprintf("To stop the service, run `mlopskit served-models delete %s`.", rec.UUID),
		}, "\n")
	case rec.IsFailed():
		return strings.Join([]string{
			"The Seldon prediction server is in a failed state:",
			fmt.Sprintf(" Last state: '%s'", rec.State),
			fmt.Sprintf(" Last error: '%s'", rec.LastError),
		}, "\n")
	}
	return ""
}
