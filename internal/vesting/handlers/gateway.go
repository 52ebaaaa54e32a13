package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type gatewayRoute struct {
	method  string
	pattern string
	handler runtime.HandlerFunc
}

// binder fills a request message from the HTTP body and path parameters.
type binder[Req any] func(r *http.Request, params map[string]string, req *Req) error

// gatewayHandler decodes the request, calls the handler in-process and writes
// the JSON response or the mapped error.
func gatewayHandler[Req any, Resp any](call func(context.Context, *Req) (*Resp, error), bind binder[Req]) runtime.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request, params map[string]string) {
		req := new(Req)
		if bind != nil {
			if err := bind(r, params, req); err != nil {
				writeError(w, status.Error(codes.InvalidArgument, err.Error()))
				return
			}
		}
		resp, err := call(r.Context(), req)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func decodeBody(r *http.Request, v interface{}) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(v)
	if err == io.EOF {
		return nil
	}
	if err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func pathUint(params map[string]string, name string) (uint64, error) {
	value, err := strconv.ParseUint(params[name], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", name, params[name])
	}
	return value, nil
}

func bindOrg(_ *http.Request, params map[string]string, req *OrganizationRequest) (err error) {
	req.OrgID, err = pathUint(params, "org_id")
	return err
}

func bindSchedule(_ *http.Request, params map[string]string, req *ScheduleRequest) (err error) {
	req.ScheduleID, err = pathUint(params, "schedule_id")
	return err
}

func bindEmployee(_ *http.Request, params map[string]string, req *EmployeeRequest) (err error) {
	req.Identity = params["identity"]
	req.OrgID, err = pathUint(params, "org_id")
	return err
}

func gatewayRoutes(h *VestingHandler) []gatewayRoute {
	return []gatewayRoute{
		{http.MethodPost, "/v1/program", gatewayHandler(h.InitializeProgram, nil)},
		{http.MethodGet, "/v1/stats", gatewayHandler(h.GetDashboardStats, nil)},

		{http.MethodGet, "/v1/organizations", gatewayHandler(h.ListOrganizations, nil)},
		{http.MethodPost, "/v1/organizations", gatewayHandler(h.CreateOrganization,
			func(r *http.Request, _ map[string]string, req *CreateOrganizationRequest) error {
				return decodeBody(r, req)
			})},
		{http.MethodGet, "/v1/organizations/{org_id}", gatewayHandler(h.GetOrganizationInfo, bindOrg)},
		{http.MethodGet, "/v1/organizations/{org_id}/owner/{identity}", gatewayHandler(h.IsOrganizationOwner,
			func(_ *http.Request, params map[string]string, req *IsOrganizationOwnerRequest) (err error) {
				req.Identity = params["identity"]
				req.OrgID, err = pathUint(params, "org_id")
				return err
			})},
		{http.MethodGet, "/v1/organizations/{org_id}/dashboard", gatewayHandler(h.GetEmployerDashboard, bindOrg)},
		{http.MethodGet, "/v1/organizations/{org_id}/employees", gatewayHandler(h.GetOrganizationEmployees, bindOrg)},
		{http.MethodPost, "/v1/organizations/{org_id}/employees", gatewayHandler(h.JoinOrganization,
			func(r *http.Request, params map[string]string, req *JoinOrganizationRequest) (err error) {
				if err := decodeBody(r, req); err != nil {
					return err
				}
				req.OrgID, err = pathUint(params, "org_id")
				return err
			})},
		{http.MethodGet, "/v1/organizations/{org_id}/employees/{identity}", gatewayHandler(h.GetEmployeeInfo, bindEmployee)},
		{http.MethodDelete, "/v1/organizations/{org_id}/employees/{identity}", gatewayHandler(h.RemoveEmployeeFromOrg, bindEmployee)},

		{http.MethodPost, "/v1/schedules", gatewayHandler(h.InitializeVestingSchedule,
			func(r *http.Request, _ map[string]string, req *InitializeVestingScheduleRequest) error {
				return decodeBody(r, &req.Params)
			})},
		{http.MethodGet, "/v1/schedules/{schedule_id}", gatewayHandler(h.GetVestingInfo, bindSchedule)},
		{http.MethodGet, "/v1/schedules/{schedule_id}/claimable", gatewayHandler(h.GetClaimableAmount, bindSchedule)},
		{http.MethodPost, "/v1/schedules/{schedule_id}/claim", gatewayHandler(h.ClaimTokens, bindSchedule)},
		{http.MethodPost, "/v1/schedules/{schedule_id}/revoke", gatewayHandler(h.RevokeVesting, bindSchedule)},
		{http.MethodGet, "/v1/me/schedules", gatewayHandler(h.GetEmployeeDashboard, nil)},

		{http.MethodGet, "/v1/balances/{token_type}/{identity}", gatewayHandler(h.GetBalance,
			func(_ *http.Request, params map[string]string, req *BalanceRequest) error {
				req.TokenType = params["token_type"]
				req.Identity = params["identity"]
				return nil
			})},
	}
}

// newGatewayMux registers the REST routes, and /metrics when metricsHandler
// is set, on a grpc-gateway mux.
func newGatewayMux(h *VestingHandler, metricsHandler http.Handler) (*runtime.ServeMux, error) {
	mux := runtime.NewServeMux()
	for _, route := range gatewayRoutes(h) {
		if err := mux.HandlePath(route.method, route.pattern, route.handler); err != nil {
			return nil, fmt.Errorf("failed to register %s %s: %w", route.method, route.pattern, err)
		}
	}
	if metricsHandler != nil {
		err := mux.HandlePath(http.MethodGet, "/metrics", func(w http.ResponseWriter, r *http.Request, _ map[string]string) {
			metricsHandler.ServeHTTP(w, r)
		})
		if err != nil {
			return nil, err
		}
	}
	return mux, nil
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	st := status.Convert(err)
	writeJSON(w, runtime.HTTPStatusFromCode(st.Code()), errorBody{
		Code:    st.Code().String(),
		Message: st.Message(),
	})
}
