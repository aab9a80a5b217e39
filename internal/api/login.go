// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"cmp"
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/olegiv/agentdesk/internal/model"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Data    model.Principal `json:"data"`
}

// Login exchanges credentials for the agent principal. Empty credentials
// fail without a network call. Any application status other than 200 in
// the response body is an authentication failure carrying the backend
// message, whatever its value.
func (c *Client) Login(ctx context.Context, email, password string) (model.Principal, error) {
	const op = "login"
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return model.Principal{}, &Error{Kind: KindValidation, Op: op, Message: MsgMissingCredentials}
	}

	body, err := c.send(ctx, op, http.MethodPost, loginRequest{Email: email, Password: password}, "api", "agent", "login")
	if err != nil {
		return model.Principal{}, err
	}

	var resp loginResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return model.Principal{}, &Error{Kind: KindServer, Op: op, Message: "unexpected response", Err: err}
	}
	if resp.Status != http.StatusOK {
		msg := cmp.Or(resp.Message, resp.Error, "Invalid Credentials")
		return model.Principal{}, &Error{Kind: KindAuth, Op: op, AppStatus: resp.Status, Message: msg}
	}
	if !resp.Data.Valid() {
		return model.Principal{}, &Error{Kind: KindServer, Op: op, Message: "login response carries no agent"}
	}
	return resp.Data, nil
}
