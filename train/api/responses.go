package api

import (
	"fmt"
	"net/http"

	"github.com/absmach/fedkit/pkg/model"
	"github.com/absmach/fedkit/pkg/session"
	"github.com/absmach/supermq"
)

var (
	_ supermq.Response = (*modelRes)(nil)
	_ supermq.Response = (*modelsPageRes)(nil)
	_ supermq.Response = (*serverDataRes)(nil)
	_ supermq.Response = (*sessionRes)(nil)
	_ supermq.Response = (*sessionsPageRes)(nil)
	_ supermq.Response = (*endSessionRes)(nil)
)

type modelRes struct {
	model.TFLiteModel
	created bool
}

func (res modelRes) Code() int {
	if res.created {
		return http.StatusCreated
	}

	return http.StatusOK
}

func (res modelRes) Headers() map[string]string {
	if res.created {
		return map[string]string{
			"Location": fmt.Sprintf("/train/models/%d", res.ID),
		}
	}

	return map[string]string{}
}

func (res modelRes) Empty() bool {
	return false
}

type modelsPageRes struct {
	model.ModelPage
}

func (res modelsPageRes) Code() int {
	return http.StatusOK
}

func (res modelsPageRes) Headers() map[string]string {
	return map[string]string{}
}

func (res modelsPageRes) Empty() bool {
	return false
}

type serverDataRes struct {
	session.ServerData
}

func (res serverDataRes) Code() int {
	return http.StatusOK
}

func (res serverDataRes) Headers() map[string]string {
	return map[string]string{}
}

func (res serverDataRes) Empty() bool {
	return false
}

type sessionRes struct {
	session.Session
}

func (res sessionRes) Code() int {
	return http.StatusOK
}

func (res sessionRes) Headers() map[string]string {
	return map[string]string{}
}

func (res sessionRes) Empty() bool {
	return false
}

type sessionsPageRes struct {
	session.SessionPage
}

func (res sessionsPageRes) Code() int {
	return http.StatusOK
}

func (res sessionsPageRes) Headers() map[string]string {
	return map[string]string{}
}

func (res sessionsPageRes) Empty() bool {
	return false
}

type endSessionRes struct{}

func (res endSessionRes) Code() int {
	return http.StatusNoContent
}

func (res endSessionRes) Headers() map[string]string {
	return map[string]string{}
}

func (res endSessionRes) Empty() bool {
	return true
}

type fileRes struct {
	name string
	data []byte
}
