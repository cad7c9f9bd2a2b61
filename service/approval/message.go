package approval

import (
	"fmt"
	"strings"

	"github.com/viant/exclusor/model/cluster"
	"github.com/viant/exclusor/service/notify"
)

// UsageHint is returned for malformed requests
const UsageHint = "Usage: /exclude-cluster <cluster-name> reason: <reason>"

const failedToSend = "Failed to send approval request."

func notFoundMessage(raw string, regions []string) string {
	quoted := make([]string, len(regions))
	for i, region := range regions {
		quoted[i] = "*" + region + "*"
	}
	where := strings.Join(quoted, " or ")
	if where == "" {
		where = "any region"
	}
	return fmt.Sprintf(":x: Cluster name %s not found in %s.", raw, where)
}

func alreadyExcludedMessage(id cluster.ID) string {
	return fmt.Sprintf("%s is already excluded.", id)
}

func alreadyPendingMessage(id cluster.ID) string {
	return fmt.Sprintf("%s is already pending approval.", id)
}

func submittedMessage(id cluster.ID) string {
	return fmt.Sprintf(":white_check_mark: Request to exclude %s sent for manager approval.", id)
}

func verb(kind Kind) (string, string) {
	if kind == KindApprove {
		return ":white_check_mark:", "approved"
	}
	return ":x:", "denied"
}

func outcomeMessage(id cluster.ID, kind Kind, decider string) string {
	icon, v := verb(kind)
	return fmt.Sprintf("%s %s exclusion was *%s* by %s.", icon, id, v, decider)
}

func requesterMessage(id cluster.ID, kind Kind, decider string) string {
	icon, v := verb(kind)
	return fmt.Sprintf("%s Your request to exclude %s was *%s* by %s.", icon, id, v, decider)
}

func approvalContent(id cluster.ID, requester, reason, approverTag string) *notify.Content {
	value := string(id)
	return &notify.Content{
		Text: fmt.Sprintf("Exclusion request for %s from %s", id, requester),
		Fields: []notify.Field{
			{Label: "Requester", Value: requester},
			{Label: "Cluster", Value: value},
			{Label: "Reason", Value: reason},
			{Label: "Manager", Value: approverTag},
		},
		Actions: []notify.Action{
			{ID: ActionApprove, Label: "✅ Accept", Value: value, Style: notify.StylePrimary},
			{ID: ActionDeny, Label: "❌ Deny", Value: value, Style: notify.StyleDanger},
		},
	}
}
