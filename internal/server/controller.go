package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vogtb/gridcalc/internal/ctxlog"
	"github.com/vogtb/gridcalc/packages/spreadsheet"
)

type ApiController struct {
	Grid Grid
}

type CellEndpointParams struct {
	CellId string `uri:"cell_id" binding:"required"`
}

type SetCellRequest struct {
	Expression *string `json:"expression" binding:"required"`
}

// Cell is the JSON form of one evaluated cell. Exactly one of Value and
// Error is set.
type Cell struct {
	ID         string   `json:"id"`
	Expression string   `json:"expression"`
	Value      *float64 `json:"value,omitempty"`
	Error      string   `json:"error,omitempty"`
}

type CellList struct {
	Rows    int    `json:"rows"`
	Columns int    `json:"columns"`
	Cells   []Cell `json:"cells"`
}

func NewApiController(grid Grid) *ApiController {
	return &ApiController{Grid: grid}
}

// statusOf maps engine errors to HTTP status codes. A bad identifier in
// the path is a missing resource; a bad reference inside an expression is
// a bad expression.
func statusOf(err error) int {
	var se *spreadsheet.SpreadsheetError
	switch {
	case errors.As(err, &se) && se.Reference != "":
		return http.StatusUnprocessableEntity
	case errors.Is(err, spreadsheet.ErrInvalidCellID):
		return http.StatusNotFound
	case errors.Is(err, spreadsheet.ErrInvalidExpression), errors.Is(err, spreadsheet.ErrCircularReference):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func newCell(id, expression string, value float64, err error) Cell {
	cell := Cell{ID: id, Expression: expression}
	if err != nil {
		cell.Error = err.Error()
	} else {
		cell.Value = &value
	}
	return cell
}

func (api *ApiController) GetCellAction(c *gin.Context) {
	params := CellEndpointParams{}
	if err := c.ShouldBindUri(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	expression, err := api.Grid.ExpressionAt(params.CellId)
	if err != nil {
		c.JSON(statusOf(err), gin.H{"error": err.Error()})
		return
	}

	value, err := api.Grid.GetValueAt(params.CellId)
	cell := newCell(params.CellId, expression, value, err)
	if err != nil {
		c.JSON(statusOf(err), cell)
		return
	}
	c.JSON(http.StatusOK, cell)
}

// SetCellAction stores the expression and answers with the cell's new
// value. An expression that stores but fails to evaluate is still written;
// the response carries the evaluation error.
func (api *ApiController) SetCellAction(c *gin.Context) {
	params := CellEndpointParams{}
	request := SetCellRequest{}

	err := c.ShouldBindUri(&params)
	if err == nil {
		err = c.ShouldBindJSON(&request)
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	logger := ctxlog.FromContext(c.Request.Context())
	if err := api.Grid.SetValueAt(params.CellId, *request.Expression); err != nil {
		logger.Debug("write rejected", "cell", params.CellId, "error", err)
		c.JSON(statusOf(err), gin.H{"error": err.Error()})
		return
	}
	logger.Debug("cell written", "cell", params.CellId)

	value, err := api.Grid.GetValueAt(params.CellId)
	c.JSON(http.StatusCreated, newCell(params.CellId, *request.Expression, value, err))
}

func (api *ApiController) GetCellListAction(c *gin.Context) {
	shape := api.Grid.Shape()
	response := CellList{
		Rows:    shape.Rows,
		Columns: shape.Columns,
		Cells:   make([]Cell, 0, shape.Rows*shape.Columns),
	}

	for _, row := range api.Grid.Calculate() {
		for _, res := range row {
			response.Cells = append(response.Cells, newCell(res.ID, res.Expression, res.Value, res.Err))
		}
	}
	c.JSON(http.StatusOK, response)
}
