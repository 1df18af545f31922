// Package protocol is the JSON line protocol spoken over the camshotd socket.
package protocol

import (
	"encoding/json"
	"io"
	"strconv"
)

type Action string

const (
	ActionOpen   Action = "OPEN"
	ActionSwitch Action = "SWITCH"
	ActionSnap   Action = "SNAP"
	ActionClose  Action = "CLOSE"
)

type Req struct {
	ID     string            `json:"id,omitempty"`
	Action Action            `json:"action"`
	Params map[string]string `json:"params"`
}

type OpenReq struct {
	Facing string
}

type SnapReq struct {
	// Output is the file the JPEG is written to.
	Output   string
	Portrait bool
}

type Status string

const (
	StatusSuccess Status = "SUCCESS"
	StatusError   Status = "ERROR"
)

type Res struct {
	ID     string            `json:"id,omitempty"`
	Status Status            `json:"status"`
	Error  string            `json:"error,omitempty"`
	Extras map[string]string `json:"extras,omitempty"`
}

func ReadReq(r io.Reader) (*Req, error) {
	var req Req
	err := json.NewDecoder(r).Decode(&req)
	return &req, err
}

func ReadRes(r io.Reader) (*Res, error) {
	var res Res
	err := json.NewDecoder(r).Decode(&res)
	return &res, err
}

func ToOpenReq(req *Req) *OpenReq {
	return &OpenReq{Facing: req.Params["facing"]}
}

func ToSnapReq(req *Req) *SnapReq {
	portrait, _ := strconv.ParseBool(req.Params["portrait"])
	return &SnapReq{
		Output:   req.Params["output"],
		Portrait: portrait,
	}
}

func WriteReq(w io.Writer, id string, action Action, params map[string]string) error {
	req := Req{
		ID:     id,
		Action: action,
		Params: params,
	}
	return json.NewEncoder(w).Encode(&req)
}

func WriteSuccessRes(w io.Writer, id string, extras map[string]string) error {
	res := Res{
		ID:     id,
		Status: StatusSuccess,
		Extras: extras,
	}
	return json.NewEncoder(w).Encode(&res)
}

func WriteErrorRes(w io.Writer, id string, err error) error {
	res := Res{
		ID:     id,
		Status: StatusError,
		Error:  err.Error(),
	}
	return json.NewEncoder(w).Encode(&res)
}
