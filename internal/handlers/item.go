package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/armansyah-dev/inventaris/internal/apperr"
	"github.com/armansyah-dev/inventaris/internal/services/inventory"
	"github.com/armansyah-dev/inventaris/internal/services/printer"
)

// parseItemForm reads the multipart form for item create/update. Line
// items arrive as a JSON array in the "line_items" field; the optional
// upload in "attachment".
func parseItemForm(req *http.Request) (*inventory.SubmitItemInput, error) {
	if err := req.ParseMultipartForm(maxMultipartMemory); err != nil {
		return nil, apperr.NewValidation("form", "request must be multipart/form-data")
	}

	fields := make(map[string]string)
	in := &inventory.SubmitItemInput{
		DocumentNumber: req.FormValue("document_number"),
		Source:         req.FormValue("source"),
	}

	in.UserID = parseUintField(req, "user_id", fields)
	in.CategoryID = parseUintField(req, "category_id", fields)
	in.SubCategoryID = parseUintField(req, "sub_category_id", fields)

	rawLines := req.FormValue("line_items")
	if rawLines == "" {
		fields["line_items"] = "line_items is required"
	} else if err := json.Unmarshal([]byte(rawLines), &in.LineItems); err != nil {
		fields["line_items"] = "line_items must be a valid JSON array"
	}

	if len(fields) > 0 {
		return nil, &apperr.Validation{Fields: fields}
	}

	file, header, err := req.FormFile("attachment")
	if err == nil {
		in.Attachment = &inventory.Attachment{File: file, Header: header}
	} else if err != http.ErrMissingFile {
		return nil, apperr.NewValidation("attachment", "attachment could not be read")
	}

	return in, nil
}

func parseUintField(req *http.Request, name string, fields map[string]string) uint {
	v, err := strconv.ParseUint(req.FormValue(name), 10, 32)
	if err != nil || v == 0 {
		fields[name] = name + " is required"
		return 0
	}
	return uint(v)
}

// listItems returns one page of items with relationships, newest first
func (r *Router) listItems(w http.ResponseWriter, req *http.Request) {
	page, _ := strconv.Atoi(req.URL.Query().Get("page"))
	result, err := r.items.ListItems(req.Context(), page)
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondData(w, http.StatusOK, result)
}

// getItem returns a single item with relationships hydrated
func (r *Router) getItem(w http.ResponseWriter, req *http.Request) {
	id, err := pathID(req)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid item ID")
		return
	}

	item, err := r.items.GetItem(req.Context(), id)
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondData(w, http.StatusOK, item)
}

// createItem handles a new batch goods submission
func (r *Router) createItem(w http.ResponseWriter, req *http.Request) {
	in, err := parseItemForm(req)
	if err != nil {
		respondAppError(w, err)
		return
	}
	defer closeAttachment(in)

	item, err := r.items.SubmitItem(req.Context(), in)
	if err != nil {
		respondAppError(w, err)
		return
	}

	respondMessage(w, http.StatusCreated, item, "Item created")
}

// updateItem fully replaces an item and its line-item list
func (r *Router) updateItem(w http.ResponseWriter, req *http.Request) {
	id, err := pathID(req)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid item ID")
		return
	}

	in, err := parseItemForm(req)
	if err != nil {
		respondAppError(w, err)
		return
	}
	defer closeAttachment(in)

	item, err := r.items.UpdateItem(req.Context(), id, in)
	if err != nil {
		respondAppError(w, err)
		return
	}

	respondMessage(w, http.StatusOK, item, "Item updated")
}

// deleteItem removes an item and its attachment
func (r *Router) deleteItem(w http.ResponseWriter, req *http.Request) {
	id, err := pathID(req)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid item ID")
		return
	}

	if err := r.items.DeleteItem(req.Context(), id); err != nil {
		respondAppError(w, err)
		return
	}

	respondMessage(w, http.StatusOK, nil, "Item deleted")
}

// itemReceipt streams the goods-receipt PDF for an item
func (r *Router) itemReceipt(w http.ResponseWriter, req *http.Request) {
	id, err := pathID(req)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid item ID")
		return
	}

	item, err := r.items.GetItem(req.Context(), id)
	if err != nil {
		respondAppError(w, err)
		return
	}

	pdf, err := printer.GenerateReceiptPDF(item)
	if err != nil {
		respondAppError(w, fmt.Errorf("failed to render receipt: %w", err))
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=receipt-%d.pdf", item.ID))
	w.Write(pdf)
}

func closeAttachment(in *inventory.SubmitItemInput) {
	if in.Attachment != nil {
		in.Attachment.File.Close()
	}
}
