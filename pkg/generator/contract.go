package generator

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-confgen/pkg/model"
	"github.com/goliatone/go-confgen/pkg/submit"
)

//go:embed contract/openapi.yaml
var defaultContract []byte

// DownloadOperation is the operationId of the archive download endpoint.
const DownloadOperation = "download"

// ErrUnknownOperation is returned when the contract has no operation for a
// form type.
var ErrUnknownOperation = errors.New("generator: contract has no operation")

// Operation is one endpoint of the generator API, keyed by operationId.
type Operation struct {
	ID     string
	Method string
	Path   string
	schema *openapi3.Schema
}

// Contract is the parsed OpenAPI document describing the generator API.
type Contract struct {
	doc        *openapi3.T
	operations map[string]Operation
}

// DefaultContract parses the contract embedded in the binary.
func DefaultContract() (*Contract, error) {
	return LoadContract(context.Background(), defaultContract)
}

// LoadContract parses and validates an OpenAPI document. Every operation must
// declare an operationId.
func LoadContract(ctx context.Context, data []byte) (*Contract, error) {
	if len(data) == 0 {
		return nil, errors.New("generator: contract document is empty")
	}
	loader := openapi3.NewLoader()
	loader.Context = ctx

	doc, err := loader.LoadFromData(data)
	if err != nil {
		return nil, fmt.Errorf("generator: load contract: %w", err)
	}
	if err := doc.Validate(ctx, openapi3.DisableExamplesValidation()); err != nil {
		return nil, fmt.Errorf("generator: validate contract: %w", err)
	}
	if doc.Paths == nil || doc.Paths.Len() == 0 {
		return nil, errors.New("generator: contract does not contain any paths")
	}

	operations := make(map[string]Operation)
	for path, item := range doc.Paths.Map() {
		if item == nil {
			continue
		}
		for method, op := range item.Operations() {
			if op == nil {
				continue
			}
			if op.OperationID == "" {
				return nil, fmt.Errorf("generator: %s %s has no operationId", method, path)
			}
			if _, exists := operations[op.OperationID]; exists {
				return nil, fmt.Errorf("generator: duplicate operationId %q", op.OperationID)
			}
			operations[op.OperationID] = Operation{
				ID:     op.OperationID,
				Method: strings.ToUpper(method),
				Path:   path,
				schema: requestSchema(op),
			}
		}
	}
	return &Contract{doc: doc, operations: operations}, nil
}

func requestSchema(op *openapi3.Operation) *openapi3.Schema {
	if op.RequestBody == nil || op.RequestBody.Value == nil {
		return nil
	}
	media := op.RequestBody.Value.Content.Get("application/json")
	if media == nil || media.Schema == nil {
		return nil
	}
	return media.Schema.Value
}

// Operation returns the operation with the given operationId.
func (c *Contract) Operation(id string) (Operation, error) {
	if c == nil {
		return Operation{}, fmt.Errorf("%w %q", ErrUnknownOperation, id)
	}
	op, ok := c.operations[id]
	if !ok {
		return Operation{}, fmt.Errorf("%w %q", ErrUnknownOperation, id)
	}
	return op, nil
}

// Generate returns the POST operation generating artifacts for form.
func (c *Contract) Generate(form model.FormType) (Operation, error) {
	op, err := c.Operation(string(form))
	if err != nil {
		return Operation{}, err
	}
	if op.Method != http.MethodPost {
		return Operation{}, fmt.Errorf("generator: operation %q must be POST, got %s", op.ID, op.Method)
	}
	return op, nil
}

// Operations lists the operationIds of the contract, sorted.
func (c *Contract) Operations() []string {
	if c == nil {
		return nil
	}
	ids := make([]string, 0, len(c.operations))
	for id := range c.operations {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Check validates payload against the operation's request schema. Violations
// are returned as remote-style details rooted at "body" so they map onto
// fields the same way a server rejection does.
func (op Operation) Check(payload submit.Payload) []submit.Detail {
	if op.schema == nil {
		return nil
	}
	// The schema visitor expects decoded JSON values (float64, []any).
	data, err := json.Marshal(payload)
	if err != nil {
		return []submit.Detail{{Loc: submit.Location{"body"}, Msg: err.Error(), Type: "contract"}}
	}
	var decoded any
	if err := json.Unmarshal(data, &decoded); err != nil {
		return []submit.Detail{{Loc: submit.Location{"body"}, Msg: err.Error(), Type: "contract"}}
	}
	if err := op.schema.VisitJSON(decoded, openapi3.MultiErrors()); err != nil {
		return schemaDetails(err)
	}
	return nil
}

func schemaDetails(err error) []submit.Detail {
	var multi openapi3.MultiError
	if errors.As(err, &multi) {
		var out []submit.Detail
		for _, inner := range multi {
			out = append(out, schemaDetails(inner)...)
		}
		return out
	}
	var schemaErr *openapi3.SchemaError
	if errors.As(err, &schemaErr) {
		loc := append(submit.Location{"body"}, schemaErr.JSONPointer()...)
		msg := schemaErr.Reason
		if msg == "" {
			msg = schemaErr.Error()
		}
		return []submit.Detail{{Loc: loc, Msg: msg, Type: "contract." + schemaErr.SchemaField}}
	}
	return []submit.Detail{{Loc: submit.Location{"body"}, Msg: err.Error(), Type: "contract"}}
}
