package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Operation is one of the operation types the indexer understands.
// Anything else decodes to UnknownOperation.
type Operation interface {
	OpType() string
	isOperation()
}

// AccountCreateOperation covers every op that brings a new account name into existence.
type AccountCreateOperation struct {
	Type    string
	Account string
}

// CommentOperation creates or edits a post or comment.
type CommentOperation struct {
	ParentAuthor   string `json:"parent_author"`
	ParentPermlink string `json:"parent_permlink"`
	Author         string `json:"author"`
	Permlink       string `json:"permlink"`
	Title          string `json:"title"`
	Body           string `json:"body"`
	JSONMetadata   string `json:"json_metadata"`
}

// DeleteCommentOperation deletes a post or comment.
type DeleteCommentOperation struct {
	Author   string `json:"author"`
	Permlink string `json:"permlink"`
}

// VoteOperation votes on a post or comment.
type VoteOperation struct {
	Voter    string `json:"voter"`
	Author   string `json:"author"`
	Permlink string `json:"permlink"`
	Weight   int16  `json:"weight"`
}

// CustomJSONOperation carries plugin payloads such as follows and reblogs.
type CustomJSONOperation struct {
	ID                   string   `json:"id"`
	RequiredAuths        []string `json:"required_auths"`
	RequiredPostingAuths []string `json:"required_posting_auths"`
	JSON                 string   `json:"json"`
}

// UnknownOperation is any op type the indexer does not interpret.
type UnknownOperation struct {
	Type string
}

func (o AccountCreateOperation) OpType() string { return o.Type }
func (CommentOperation) OpType() string         { return "comment" }
func (DeleteCommentOperation) OpType() string   { return "delete_comment" }
func (VoteOperation) OpType() string            { return "vote" }
func (CustomJSONOperation) OpType() string      { return "custom_json" }
func (o UnknownOperation) OpType() string       { return o.Type }

func (AccountCreateOperation) isOperation() {}
func (CommentOperation) isOperation()       {}
func (DeleteCommentOperation) isOperation() {}
func (VoteOperation) isOperation()          {}
func (CustomJSONOperation) isOperation()    {}
func (UnknownOperation) isOperation()       {}

// DecodeOperation decodes both the appbase `{"type": "x_operation", "value": {...}}`
// and the legacy `["x", {...}]` encodings.
func DecodeOperation(data []byte) (Operation, error) {
	opType, value, err := splitOperation(data)
	if err != nil {
		return nil, err
	}

	switch opType {
	case "pow":
		var op struct {
			WorkerAccount string `json:"worker_account"`
		}
		if err := json.Unmarshal(value, &op); err != nil {
			return nil, fmt.Errorf("decode %s: %w", opType, err)
		}
		return AccountCreateOperation{Type: opType, Account: op.WorkerAccount}, nil
	case "pow2":
		account, err := pow2WorkerAccount(value)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", opType, err)
		}
		return AccountCreateOperation{Type: opType, Account: account}, nil
	case "account_create", "account_create_with_delegation", "create_claimed_account":
		var op struct {
			NewAccountName string `json:"new_account_name"`
		}
		if err := json.Unmarshal(value, &op); err != nil {
			return nil, fmt.Errorf("decode %s: %w", opType, err)
		}
		return AccountCreateOperation{Type: opType, Account: op.NewAccountName}, nil
	case "comment":
		var op CommentOperation
		if err := json.Unmarshal(value, &op); err != nil {
			return nil, fmt.Errorf("decode %s: %w", opType, err)
		}
		return op, nil
	case "delete_comment":
		var op DeleteCommentOperation
		if err := json.Unmarshal(value, &op); err != nil {
			return nil, fmt.Errorf("decode %s: %w", opType, err)
		}
		return op, nil
	case "vote":
		var op VoteOperation
		if err := json.Unmarshal(value, &op); err != nil {
			return nil, fmt.Errorf("decode %s: %w", opType, err)
		}
		return op, nil
	case "custom_json":
		var op CustomJSONOperation
		if err := json.Unmarshal(value, &op); err != nil {
			return nil, fmt.Errorf("decode %s: %w", opType, err)
		}
		return op, nil
	default:
		return UnknownOperation{Type: opType}, nil
	}
}

func splitOperation(data []byte) (string, json.RawMessage, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return "", nil, errors.New("empty operation")
	}

	if data[0] == '[' {
		var pair []json.RawMessage
		if err := json.Unmarshal(data, &pair); err != nil {
			return "", nil, fmt.Errorf("decode legacy operation: %w", err)
		}
		if len(pair) != 2 {
			return "", nil, fmt.Errorf("legacy operation has %d elements", len(pair))
		}
		var opType string
		if err := json.Unmarshal(pair[0], &opType); err != nil {
			return "", nil, fmt.Errorf("decode legacy operation type: %w", err)
		}
		return opType, pair[1], nil
	}

	var tagged struct {
		Type  string          `json:"type"`
		Value json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(data, &tagged); err != nil {
		return "", nil, fmt.Errorf("decode operation: %w", err)
	}
	if tagged.Type == "" {
		return "", nil, errors.New("operation without type")
	}
	return strings.TrimSuffix(tagged.Type, "_operation"), tagged.Value, nil
}

// pow2 work is either the appbase `{"type": .., "value": {"input": ..}}`
// or the legacy `[type, {"input": ..}]` static variant.
func pow2WorkerAccount(value json.RawMessage) (string, error) {
	var op struct {
		Work json.RawMessage `json:"work"`
	}
	if err := json.Unmarshal(value, &op); err != nil {
		return "", err
	}
	_, work, err := splitVariant(op.Work)
	if err != nil {
		return "", err
	}
	var body struct {
		Input struct {
			WorkerAccount string `json:"worker_account"`
		} `json:"input"`
	}
	if err := json.Unmarshal(work, &body); err != nil {
		return "", err
	}
	return body.Input.WorkerAccount, nil
}

func splitVariant(data json.RawMessage) (string, json.RawMessage, error) {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var pair []json.RawMessage
		if err := json.Unmarshal(data, &pair); err != nil {
			return "", nil, err
		}
		if len(pair) != 2 {
			return "", nil, fmt.Errorf("variant has %d elements", len(pair))
		}
		return string(pair[0]), pair[1], nil
	}
	var tagged struct {
		Type  string          `json:"type"`
		Value json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(data, &tagged); err != nil {
		return "", nil, err
	}
	return tagged.Type, tagged.Value, nil
}
