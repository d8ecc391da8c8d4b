package handlers

import (
	"github.com/fatflowers/memberlink/internal/app/service/statistics"
	"github.com/fatflowers/memberlink/pkg/response"
)

// RespOK is a generic OK envelope for endpoints returning no specific data.
type RespOK struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    interface{}              `json:"data"`
}

// RespListMemberships wraps ListMembershipsResponse in the standard envelope.
type RespListMemberships struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    ListMembershipsResponse  `json:"data"`
}

// RespMembershipStatistic wraps MembershipStatisticResponse in the standard envelope.
type RespMembershipStatistic struct {
	Code    response.APIResponseCode               `json:"code"`
	Message string                                 `json:"message"`
	Data    statistics.MembershipStatisticResponse `json:"data"`
}
