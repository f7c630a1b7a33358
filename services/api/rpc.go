package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"kuasap-backend/lib/htmlutil"
	"kuasap-backend/lib/scrapers/kuasap"
	"kuasap-backend/lib/serviceutil"
	"kuasap-backend/lib/sessions"

	"connectrpc.com/connect"
)

const (
	ServiceName = "kuasap.v1.APService"

	LoginProcedure   = "/" + ServiceName + "/Login"
	QueryProcedure   = "/" + ServiceName + "/Query"
	IsValidProcedure = "/" + ServiceName + "/IsValid"
	LogoutProcedure  = "/" + ServiceName + "/Logout"
)

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string `json:"token"`
	// Duration is the idle timeout of the token in seconds.
	Duration int64 `json:"duration"`
}

type QueryRequest struct {
	QueryId string            `json:"query_id"`
	Args    map[string]string `json:"args"`
}

type QueryResponse struct {
	Payload string     `json:"payload"`
	Rows    [][]string `json:"rows"`
}

type IsValidRequest struct {
	Token string `json:"token"`
}

type IsValidResponse struct {
	Valid bool `json:"valid"`
}

type LogoutRequest struct{}

type LogoutResponse struct {
	Revoked bool `json:"revoked"`
}

// jsonCodec replaces connect's protobuf based json codec so that plain
// structs can be used as messages.
type jsonCodec struct{}

func (jsonCodec) Name() string {
	return "json"
}

func (jsonCodec) Marshal(msg any) ([]byte, error) {
	return json.Marshal(msg)
}

func (jsonCodec) Unmarshal(data []byte, msg any) error {
	return json.Unmarshal(data, msg)
}

func connectCode(err error) connect.Code {
	var transportErr *kuasap.TransportError
	switch {
	case errors.Is(err, kuasap.ErrAuthFailed), errors.Is(err, sessions.ErrUnknownToken):
		return connect.CodeUnauthenticated
	case errors.Is(err, kuasap.ErrInvalidQueryId):
		return connect.CodeInvalidArgument
	case errors.Is(err, context.DeadlineExceeded):
		return connect.CodeDeadlineExceeded
	case errors.As(err, &transportErr):
		if transportErr.Timeout() {
			return connect.CodeDeadlineExceeded
		}
		return connect.CodeUnavailable
	case errors.Is(err, kuasap.ErrMalformedResponse):
		return connect.CodeUnavailable
	}
	return connect.CodeInternal
}

func rpcError(err error) error {
	return connect.NewError(connectCode(err), err)
}

func requestToken(header http.Header) (string, error) {
	token, ok := serviceutil.BearerToken(header)
	if !ok {
		return "", connect.NewError(connect.CodeUnauthenticated, errors.New("missing bearer token"))
	}
	return token, nil
}

func (s *Server) rpcLogin(ctx context.Context, req *connect.Request[LoginRequest]) (*connect.Response[LoginResponse], error) {
	token, err := s.ap.Login(ctx, req.Msg.Username, req.Msg.Password)
	if err != nil {
		return nil, rpcError(err)
	}
	return connect.NewResponse(&LoginResponse{
		Token:    token,
		Duration: int64(s.ap.IdleTimeout().Seconds()),
	}), nil
}

func (s *Server) rpcQuery(ctx context.Context, req *connect.Request[QueryRequest]) (*connect.Response[QueryResponse], error) {
	token, err := requestToken(req.Header())
	if err != nil {
		return nil, err
	}
	payload, err := s.ap.Query(ctx, token, req.Msg.QueryId, req.Msg.Args)
	if err != nil {
		return nil, rpcError(err)
	}
	rows, err := htmlutil.ParseTables(ctx, payload)
	if err != nil {
		return nil, rpcError(err)
	}
	return connect.NewResponse(&QueryResponse{
		Payload: string(payload),
		Rows:    rows,
	}), nil
}

func (s *Server) rpcIsValid(_ context.Context, req *connect.Request[IsValidRequest]) (*connect.Response[IsValidResponse], error) {
	return connect.NewResponse(&IsValidResponse{
		Valid: s.ap.IsValid(req.Msg.Token),
	}), nil
}

func (s *Server) rpcLogout(_ context.Context, req *connect.Request[LogoutRequest]) (*connect.Response[LogoutResponse], error) {
	token, err := requestToken(req.Header())
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(&LogoutResponse{
		Revoked: s.ap.Logout(token),
	}), nil
}

func (s *Server) rpcHandlers(opts ...connect.HandlerOption) map[string]http.Handler {
	opts = append([]connect.HandlerOption{connect.WithCodec(jsonCodec{})}, opts...)
	return map[string]http.Handler{
		LoginProcedure:   connect.NewUnaryHandler(LoginProcedure, s.rpcLogin, opts...),
		QueryProcedure:   connect.NewUnaryHandler(QueryProcedure, s.rpcQuery, opts...),
		IsValidProcedure: connect.NewUnaryHandler(IsValidProcedure, s.rpcIsValid, opts...),
		LogoutProcedure:  connect.NewUnaryHandler(LogoutProcedure, s.rpcLogout, opts...),
	}
}

// Client calls the APService procedures of a server.
type Client struct {
	login   *connect.Client[LoginRequest, LoginResponse]
	query   *connect.Client[QueryRequest, QueryResponse]
	isValid *connect.Client[IsValidRequest, IsValidResponse]
	logout  *connect.Client[LogoutRequest, LogoutResponse]
}

// NewClient creates a client for the server at baseUrl. Authenticated
// procedures need serviceutil.ProvideTokenInterceptor among the options.
func NewClient(httpClient connect.HTTPClient, baseUrl string, opts ...connect.ClientOption) *Client {
	opts = append([]connect.ClientOption{connect.WithCodec(jsonCodec{})}, opts...)
	return &Client{
		login:   connect.NewClient[LoginRequest, LoginResponse](httpClient, baseUrl+LoginProcedure, opts...),
		query:   connect.NewClient[QueryRequest, QueryResponse](httpClient, baseUrl+QueryProcedure, opts...),
		isValid: connect.NewClient[IsValidRequest, IsValidResponse](httpClient, baseUrl+IsValidProcedure, opts...),
		logout:  connect.NewClient[LogoutRequest, LogoutResponse](httpClient, baseUrl+LogoutProcedure, opts...),
	}
}

func (c *Client) Login(ctx context.Context, username, password string) (*LoginResponse, error) {
	res, err := c.login.CallUnary(ctx, connect.NewRequest(&LoginRequest{
		Username: username,
		Password: password,
	}))
	if err != nil {
		return nil, err
	}
	return res.Msg, nil
}

func (c *Client) Query(ctx context.Context, qid string, args map[string]string) (*QueryResponse, error) {
	res, err := c.query.CallUnary(ctx, connect.NewRequest(&QueryRequest{
		QueryId: qid,
		Args:    args,
	}))
	if err != nil {
		return nil, err
	}
	return res.Msg, nil
}

func (c *Client) IsValid(ctx context.Context, token string) (bool, error) {
	res, err := c.isValid.CallUnary(ctx, connect.NewRequest(&IsValidRequest{Token: token}))
	if err != nil {
		return false, err
	}
	return res.Msg.Valid, nil
}

func (c *Client) Logout(ctx context.Context) (bool, error) {
	res, err := c.logout.CallUnary(ctx, connect.NewRequest(&LogoutRequest{}))
	if err != nil {
		return false, err
	}
	return res.Msg.Revoked, nil
}
