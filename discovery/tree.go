package discovery

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/bitrise-steplib/steps-rhapsody-test/models"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

const treeSchemaURL = "rhapsody-components.schema.json"

const treeSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"required": ["data"],
	"properties": {
		"data": {"$ref": "#/definitions/folder"}
	},
	"definitions": {
		"identifier": {"type": ["string", "number"]},
		"component": {
			"type": "object",
			"required": ["name"],
			"properties": {
				"uuid": {"$ref": "#/definitions/identifier"},
				"id": {"$ref": "#/definitions/identifier"},
				"name": {"type": "string"},
				"type": {"type": "string"},
				"childComponents": {
					"type": ["array", "null"],
					"items": {"$ref": "#/definitions/component"}
				}
			}
		},
		"folder": {
			"type": "object",
			"properties": {
				"name": {"type": "string"},
				"childComponents": {
					"type": ["array", "null"],
					"items": {"$ref": "#/definitions/component"}
				},
				"childFolders": {
					"type": ["array", "null"],
					"items": {
						"allOf": [
							{"$ref": "#/definitions/folder"},
							{"required": ["name"]}
						]
					}
				}
			}
		}
	}
}`

var compiledTreeSchema = jsonschema.MustCompileString(treeSchemaURL, treeSchema)

type rawComponent struct {
	UUID            identifier     `json:"uuid"`
	ID              identifier     `json:"id"`
	Name            string         `json:"name"`
	Type            string         `json:"type"`
	ChildComponents []rawComponent `json:"childComponents"`
}

type rawFolder struct {
	Name            string         `json:"name"`
	ChildComponents []rawComponent `json:"childComponents"`
	ChildFolders    []rawFolder    `json:"childFolders"`
}

type rawTree struct {
	Data rawFolder `json:"data"`
}

// identifier accepts both string and numeric ids.
type identifier string

func (i *identifier) UnmarshalJSON(b []byte) error {
	var v interface{}
	decoder := json.NewDecoder(bytes.NewReader(b))
	decoder.UseNumber()
	if err := decoder.Decode(&v); err != nil {
		return err
	}

	switch value := v.(type) {
	case nil:
		*i = ""
	case string:
		*i = identifier(value)
	case json.Number:
		*i = identifier(value.String())
	default:
		return fmt.Errorf("unsupported identifier: %s", string(b))
	}
	return nil
}

// ParseTree reads the engine's component listing. Every ROUTE found in any
// folder becomes a Route, its direct children become its Filters.
func ParseTree(raw []byte) (models.Tree, error) {
	var document interface{}
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()
	if err := decoder.Decode(&document); err != nil {
		return models.Tree{}, fmt.Errorf("failed to decode component tree: %w", err)
	}
	if err := compiledTreeSchema.Validate(document); err != nil {
		return models.Tree{}, fmt.Errorf("invalid component tree: %w", err)
	}

	var tree rawTree
	if err := json.Unmarshal(raw, &tree); err != nil {
		return models.Tree{}, fmt.Errorf("failed to decode component tree: %w", err)
	}

	result := models.Tree{}
	collectRoutes(&result, tree.Data, nil)
	return result, nil
}

func collectRoutes(tree *models.Tree, folder rawFolder, folderPath []string) {
	folderName := strings.Join(folderPath, "/")

	for _, child := range folder.ChildComponents {
		if child.Type != models.RouteType {
			continue
		}

		var filters []models.Component
		for _, filter := range child.ChildComponents {
			filters = append(filters, filter.component(folderName))
		}
		tree.AddRoute(child.component(folderName), filters...)
	}

	for _, child := range folder.ChildFolders {
		path := append(append([]string{}, folderPath...), child.Name)
		collectRoutes(tree, child, path)
	}
}

func (c rawComponent) component(folder string) models.Component {
	return models.Component{
		UUID:   string(c.UUID),
		ID:     string(c.ID),
		Name:   c.Name,
		Type:   c.Type,
		Folder: folder,
	}
}
