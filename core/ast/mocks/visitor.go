package mocks

import (
	"errors"

	"github.com/enumeum/pgenum/core/ast"
)

// MockVisitor implements the Visitor interface for testing
type MockVisitor struct {
	VisitedNodes []string
	ReturnError  bool
}

func (m *MockVisitor) VisitEnum(node *ast.EnumNode) error {
	return m.visit("Enum:" + node.Name)
}

func (m *MockVisitor) VisitAlterType(node *ast.AlterTypeNode) error {
	return m.visit("AlterType:" + node.Name)
}

func (m *MockVisitor) VisitDropType(node *ast.DropTypeNode) error {
	return m.visit("DropType:" + node.Name)
}

func (m *MockVisitor) VisitLockTable(node *ast.LockTableNode) error {
	return m.visit("LockTable:" + node.Table)
}

func (m *MockVisitor) VisitAlterTable(node *ast.AlterTableNode) error {
	return m.visit("AlterTable:" + node.Name)
}

func (m *MockVisitor) VisitComment(node *ast.CommentNode) error {
	return m.visit("Comment:" + node.Text)
}

func (m *MockVisitor) visit(entry string) error {
	m.VisitedNodes = append(m.VisitedNodes, entry)
	if m.ReturnError {
		return errors.New("mock error")
	}
	return nil
}
