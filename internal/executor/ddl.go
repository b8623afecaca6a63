package executor

import (
	"fmt"

	"github.com/leengari/mini-rdbms/internal/ast"
	"github.com/leengari/mini-rdbms/internal/catalog"
	"github.com/leengari/mini-rdbms/internal/dberrors"
	"github.com/leengari/mini-rdbms/internal/types"
)

func resolveType(def ast.ColumnDef) (types.ColumnType, error) {
	switch def.TypeName {
	case "INTEGER":
		return types.Int(), nil
	case "FLOAT":
		return types.FloatType(), nil
	case "BOOLEAN":
		return types.BooleanType(), nil
	case "DATE":
		return types.DateType(), nil
	case "VARCHAR":
		return types.Varchar(def.Length), nil
	default:
		return types.ColumnType{}, fmt.Errorf("executor: unknown column type %q", def.TypeName)
	}
}

func (ex *Executor) execCreateTable(s *ast.CreateTableStatement) (*Result, error) {
	cols := make([]catalog.Column, 0, len(s.Columns))
	for _, cd := range s.Columns {
		ct, err := resolveType(cd)
		if err != nil {
			return nil, err
		}
		col := catalog.Column{
			Name:       cd.Name,
			Type:       ct,
			PrimaryKey: cd.PrimaryKey,
			Unique:     cd.Unique,
			NotNull:    cd.NotNull,
		}
		if cd.ReferencesTbl != "" {
			refCol := cd.ReferencesCol
			if refCol == "" {
				refTable, ok := ex.Cat.GetTable(cd.ReferencesTbl)
				if !ok {
					return nil, &dberrors.UnknownTableError{Table: cd.ReferencesTbl}
				}
				pk, ok := refTable.PrimaryKeyColumn()
				if !ok {
					return nil, fmt.Errorf("REFERENCES %s requires an explicit column: table has no PRIMARY KEY", cd.ReferencesTbl)
				}
				refCol = pk.Name
			}
			col.ForeignKey = &catalog.ForeignKey{Table: cd.ReferencesTbl, Column: refCol}
		}
		cols = append(cols, col)
	}

	t, err := ex.Cat.CreateTable(s.TableName, cols)
	if err != nil {
		return nil, err
	}
	if err := ex.Store.SaveTable(t); err != nil {
		return nil, err
	}
	return &Result{Message: "Table created"}, nil
}

func (ex *Executor) execDropTable(s *ast.DropTableStatement) (*Result, error) {
	if err := ex.Cat.DropTable(s.TableName); err != nil {
		return nil, err
	}
	if err := ex.Store.DropTable(s.TableName); err != nil {
		return nil, err
	}
	return &Result{Message: "Table dropped"}, nil
}

func (ex *Executor) execCreateIndex(s *ast.CreateIndexStatement) (*Result, error) {
	if _, err := ex.Cat.CreateIndex(s.IndexName, s.TableName, s.Column, s.Unique); err != nil {
		return nil, err
	}
	if err := ex.Store.SaveIndexRegistry(ex.Cat); err != nil {
		return nil, err
	}
	return &Result{Message: "Index created"}, nil
}
