// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package backend

import (
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"

	"github.com/vishalm/LlamaBot/internal/model"
)

// =============================================================================
// CONVERSATION PAYLOADS
// =============================================================================

// The canonical conversation shape is {"thread_id": ..., "state":
// {"messages": [...]}}. The server currently serializes graph state as a
// snapshot tuple, so "state" (or a whole history body) may instead be an
// array whose first object element carries "messages". Both decode to the
// same model.Conversation; shim reports that the array shape was seen.

// findMessages locates the messages array in a state value.
func findMessages(state gjson.Result) (msgs gjson.Result, shim bool, ok bool) {
	switch {
	case state.IsObject():
		if m := state.Get("messages"); m.IsArray() {
			return m, false, true
		}
		if inner := state.Get("state"); inner.Exists() {
			return findMessages(inner)
		}
	case state.IsArray():
		for _, el := range state.Array() {
			if !el.IsObject() {
				continue
			}
			if m := el.Get("messages"); m.IsArray() {
				return m, true, true
			}
		}
	}
	return gjson.Result{}, false, false
}

// decodeRecords unmarshals a messages array. A missing array is an empty
// conversation, not an error.
func decodeRecords(msgs gjson.Result, ok bool) ([]model.Record, error) {
	if !ok {
		return []model.Record{}, nil
	}
	var records []model.Record
	if err := json.Unmarshal([]byte(msgs.Raw), &records); err != nil {
		return nil, errors.Wrap(err, "decode messages")
	}
	return records, nil
}

// decodeThreads decodes a GET /threads body.
func decodeThreads(body []byte) (convs []model.Conversation, shim bool, err error) {
	root := gjson.ParseBytes(body)
	if !root.IsArray() {
		return nil, false, errors.New("threads payload is not an array")
	}

	for i, item := range root.Array() {
		id := item.Get("thread_id").String()
		if id == "" {
			return nil, false, errors.Errorf("thread %d has no thread_id", i)
		}
		msgs, usedShim, ok := findMessages(item.Get("state"))
		records, err := decodeRecords(msgs, ok)
		if err != nil {
			return nil, false, errors.Wrapf(err, "thread %s", id)
		}
		shim = shim || usedShim
		convs = append(convs, model.Conversation{ThreadID: id, Messages: records})
	}
	return convs, shim, nil
}

// decodeHistory decodes a GET /chat-history/{id} body. The body may be the
// canonical conversation object, a bare state object, or a snapshot array.
func decodeHistory(threadID string, body []byte) (conv model.Conversation, shim bool, err error) {
	root := gjson.ParseBytes(body)
	if !root.IsObject() && !root.IsArray() {
		return model.Conversation{}, false, errors.New("history payload is not an object or array")
	}

	if id := root.Get("thread_id").String(); id != "" {
		threadID = id
	}
	msgs, shim, ok := findMessages(root)
	records, err := decodeRecords(msgs, ok)
	if err != nil {
		return model.Conversation{}, false, err
	}
	return model.Conversation{ThreadID: threadID, Messages: records}, shim, nil
}

// backendError extracts the message from an {"error": "..."} body.
func backendError(body []byte) (string, bool) {
	root := gjson.ParseBytes(body)
	if !root.IsObject() {
		return "", false
	}
	if e := root.Get("error"); e.Exists() && e.String() != "" {
		return e.String(), true
	}
	return "", false
}

// statusDetail pulls a human-readable reason out of an error response.
// FastAPI reports validation failures under "detail".
func statusDetail(body []byte) string {
	if msg, ok := backendError(body); ok {
		return msg
	}
	detail := gjson.GetBytes(body, "detail")
	switch {
	case detail.Type == gjson.String:
		return detail.String()
	case detail.IsArray():
		return detail.Get("0.msg").String()
	}
	return ""
}
