// Package pending defines the in-flight approval request store: at most one
// request per canonical cluster id awaits a decision at any time.
package pending

import (
	"time"

	"github.com/viant/exclusor/model/cluster"
	"github.com/viant/exclusor/service/dao"
	"github.com/viant/exclusor/service/notify"
)

// RequesterParameter filters List by requester id.
const RequesterParameter = "RequesterID"

// Request is an approval request awaiting a decision. The document key is the
// cluster id, so ClusterID is not serialized.
type Request struct {
	ClusterID     cluster.ID `json:"-"`
	RequesterID   string     `json:"user_id"`
	RequesterName string     `json:"user_name,omitempty"`
	notify.MessageRef
	Reason      string    `json:"reason,omitempty"`
	ApproverTag string    `json:"approver,omitempty"`
	CreatedAt   time.Time `json:"created_at,omitempty"`
}

// Key returns the store key
func Key(r *Request) string { return string(r.ClusterID) }

// Store persists pending requests
type Store interface {
	dao.Service[string, Request]
	dao.Creator[string, Request]
}

// Match returns true when r satisfies the List parameters
func Match(r *Request, parameters []*dao.Parameter) bool {
	values, ok := dao.Lookup(RequesterParameter, parameters)
	if !ok {
		return true
	}
	for _, v := range values {
		if r.RequesterID == v {
			return true
		}
	}
	return false
}
