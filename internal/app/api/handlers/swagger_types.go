package handlers

import (
	"github.com/pxlchk1/complete-camping-app-2.0-sub001/internal/app/service/paywall"
	"github.com/pxlchk1/complete-camping-app-2.0-sub001/internal/app/service/statistics"
	"github.com/pxlchk1/complete-camping-app-2.0-sub001/pkg/response"
	types "github.com/pxlchk1/complete-camping-app-2.0-sub001/pkg/types"
)

// RespOK is a generic OK envelope for endpoints returning no specific data.
type RespOK struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    interface{}              `json:"data"`
}

// RespSubscribe wraps SubscribeResponse in the standard envelope.
type RespSubscribe struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    SubscribeResponse        `json:"data"`
}

// RespRestore wraps RestoreResponse in the standard envelope.
type RespRestore struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    RestoreResponse          `json:"data"`
}

// RespMembershipStatus wraps MembershipStatusResponse in the standard envelope.
type RespMembershipStatus struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    MembershipStatusResponse `json:"data"`
}

// RespPackages wraps the package list in the standard envelope.
type RespPackages struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    []types.Package          `json:"data"`
}

// RespPaywallState wraps paywall.State in the standard envelope.
type RespPaywallState struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    paywall.State            `json:"data"`
}

// RespCheckFeature wraps CheckFeatureResponse in the standard envelope.
type RespCheckFeature struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    CheckFeatureResponse     `json:"data"`
}

// RespMembershipStatistic wraps MembershipStatisticResponse in the standard envelope.
type RespMembershipStatistic struct {
	Code    response.APIResponseCode               `json:"code"`
	Message string                                 `json:"message"`
	Data    statistics.MembershipStatisticResponse `json:"data"`
}
