package navtree

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

var jsIdentPattern = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func structValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		_ = validate.RegisterValidation("jsident", func(fl validator.FieldLevel) bool {
			return IsIdentifier(fl.Field().String())
		})
	})
	return validate
}

// IsIdentifier reports whether name can be used as a JavaScript variable name.
func IsIdentifier(name string) bool {
	return jsIdentPattern.MatchString(name)
}

// Violation is one structural problem found by Validate.
type Violation struct {
	Path    string
	Message string
}

func (v *Violation) Error() string {
	if v.Path == "" {
		return v.Message
	}
	return v.Path + ": " + v.Message
}

// Validate checks that the tree is well formed: a valid variable name, at
// least one top-level node, non-empty titles, UTF-8 text, nil child lists on
// leaves and no node reachable twice. All violations are returned joined together.
func Validate(tree *Tree) error {
	if tree == nil {
		return &Violation{Message: "tree is nil"}
	}

	var errs []error
	if err := structValidator().Struct(tree); err != nil {
		errs = append(errs, fieldErrors("", err)...)
	}

	seen := make(map[*Node]bool)
	var check func(nodes []*Node, path []string)
	check = func(nodes []*Node, path []string) {
		for i, node := range nodes {
			label := fmt.Sprintf("[%d]", i)
			if node == nil {
				errs = append(errs, &Violation{Path: joinPath(append(path, label)), Message: "nil node"})
				continue
			}
			if node.Title != "" {
				label = fmt.Sprintf("%q", node.Title)
			}
			nodePath := append(append([]string(nil), path...), label)
			if seen[node] {
				errs = append(errs, &Violation{Path: joinPath(nodePath), Message: "node reachable more than once"})
				continue
			}
			seen[node] = true

			if err := structValidator().Struct(node); err != nil {
				errs = append(errs, fieldErrors(joinPath(nodePath), err)...)
			}
			for _, field := range []struct{ name, value string }{
				{"title", node.Title}, {"link", node.Link}, {"flags", node.Flags},
			} {
				if !utf8.ValidString(field.value) {
					errs = append(errs, &Violation{Path: joinPath(nodePath), Message: field.name + " is not valid UTF-8"})
				}
			}
			if node.ChildrenRef != "" && len(node.Children) > 0 {
				errs = append(errs, &Violation{Path: joinPath(nodePath), Message: "node has both inline and referenced children"})
			}
			if node.Children != nil && len(node.Children) == 0 {
				errs = append(errs, &Violation{Path: joinPath(nodePath), Message: "leaf must use a nil child list"})
			}
			check(node.Children, nodePath)
		}
	}
	check(tree.Nodes, nil)

	return errors.Join(errs...)
}

func fieldErrors(path string, err error) []error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return []error{err}
	}
	out := make([]error, 0, len(validationErrs))
	for _, fe := range validationErrs {
		out = append(out, &Violation{
			Path:    path,
			Message: fmt.Sprintf("%s fails %q", strings.ToLower(fe.Field()), fe.Tag()),
		})
	}
	return out
}

func joinPath(path []string) string {
	return strings.Join(path, " > ")
}
