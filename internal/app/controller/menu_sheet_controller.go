package controller

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tablemenu/menu-backend/internal/app/service"
	apperrors "github.com/tablemenu/menu-backend/internal/errors"
	"github.com/tablemenu/menu-backend/internal/middleware"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	maxSheetSize    = 10 << 20
)

type MenuSheetController struct {
	menuSheetService service.MenuSheetService
}

func NewMenuSheetController(menuSheetService service.MenuSheetService) *MenuSheetController {
	return &MenuSheetController{menuSheetService: menuSheetService}
}

// ExportMenu downloads the menu as an XLSX workbook
// GET /api/v1/restaurants/:id/menu/export
func (ctrl *MenuSheetController) ExportMenu(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	restaurantID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	data, filename, err := ctrl.menuSheetService.Export(userID, restaurantID)
	if err != nil {
		if respondOwnershipError(c, err) {
			return
		}
		respondUnexpected(c, err, "export menu")
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, xlsxContentType, data)
}

// ImportMenu adds items from an uploaded XLSX (form field "file").
// Rows that cannot be read are skipped and listed in the report.
// POST /api/v1/restaurants/:id/menu/import
func (ctrl *MenuSheetController) ImportMenu(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	restaurantID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationRequired, "file is required")
		return
	}
	if header.Size > maxSheetSize {
		apperrors.BadRequest(c, apperrors.UploadFileTooLarge, "Spreadsheet exceeds the 10 MB limit")
		return
	}

	file, err := header.Open()
	if err != nil {
		respondUnexpected(c, err, "import menu")
		return
	}
	defer file.Close()

	report, err := ctrl.menuSheetService.Import(userID, restaurantID, file)
	if err != nil {
		if respondOwnershipError(c, err) {
			return
		}
		if errors.Is(err, service.ErrInvalidSheet) {
			log.Warn("Menu import rejected", map[string]interface{}{
				"restaurant_id": restaurantID,
				"error":         err.Error(),
			})
			apperrors.BadRequest(c, apperrors.MenuImportFailed, err.Error())
			return
		}
		respondUnexpected(c, err, "import menu")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Menu imported",
		"report":  report,
	})
}
