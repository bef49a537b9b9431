package rpc

import "github.com/morezero/bulk-actions/pkg/commsutil"

func decodeJSON(data []byte, v interface{}) error {
	return commsutil.DecodePayload(data, v)
}

// DecodeRequest parses a COMMS message body into a Request.
func DecodeRequest(data []byte) (*Request, error) {
	var req Request
	if err := commsutil.DecodePayload(data, &req); err != nil {
		return nil, err
	}
	return &req, nil
}

// EncodeResponse serialises a Response.
func EncodeResponse(resp *Response) ([]byte, error) {
	return commsutil.EncodePayload(resp)
}
