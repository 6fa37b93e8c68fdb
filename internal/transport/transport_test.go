package transport

import (
	"net/http"
	"testing"

	"github.com/eugener/playerlookup/internal/apperror"
)

func TestClassifyStatus_OK(t *testing.T) {
	t.Parallel()
	req := Request{FailCode: "minecraft.api_failure"}
	appErr, ok := classifyStatus(req, http.StatusOK, nil)
	if appErr != nil || !ok {
		t.Fatalf("classifyStatus(200) = %v, %v, want nil, true", appErr, ok)
	}
}

func TestClassifyStatus_RateLimited(t *testing.T) {
	t.Parallel()
	req := Request{FailCode: "minecraft.api_failure"}
	appErr, ok := classifyStatus(req, http.StatusTooManyRequests, nil)
	if ok {
		t.Fatal("classifyStatus(429) should not be ok")
	}
	if appErr.Code != "minecraft.api_failure" || appErr.HTTPStatus() != 429 {
		t.Errorf("classifyStatus(429) = %+v, want code minecraft.api_failure, status 429", appErr)
	}
}

func TestClassifyStatus_RateLimitedWithOverride(t *testing.T) {
	t.Parallel()
	req := Request{FailCode: "xbox.api_failure", RateLimitCode: "xbox.rate_limited"}
	appErr, ok := classifyStatus(req, http.StatusTooManyRequests, nil)
	if ok {
		t.Fatal("classifyStatus(429) should not be ok")
	}
	if appErr.Code != "xbox.rate_limited" {
		t.Errorf("classifyStatus(429) code = %q, want xbox.rate_limited", appErr.Code)
	}
}

func TestClassifyStatus_AuthFailure(t *testing.T) {
	t.Parallel()
	req := Request{FailCode: "hytale.api_failure", AuthFailCode: "hytale.auth_failure"}

	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden} {
		appErr, ok := classifyStatus(req, status, nil)
		if ok {
			t.Fatalf("classifyStatus(%d) should not be ok", status)
		}
		if appErr.Code != "hytale.auth_failure" {
			t.Errorf("classifyStatus(%d) code = %q, want hytale.auth_failure", status, appErr.Code)
		}
	}
}

func TestClassifyStatus_AuthCodesFallThroughWithoutAuthFailCode(t *testing.T) {
	t.Parallel()
	req := Request{FailCode: "minecraft.api_failure"}
	appErr, ok := classifyStatus(req, http.StatusUnauthorized, nil)
	if ok {
		t.Fatal("classifyStatus(401) should not be ok")
	}
	if appErr.Code != "minecraft.api_failure" {
		t.Errorf("classifyStatus(401) code = %q, want minecraft.api_failure (no AuthFailCode set)", appErr.Code)
	}
}

func TestClassifyStatus_NotFound(t *testing.T) {
	t.Parallel()
	req := Request{FailCode: "xbox.api_failure", NotFoundCode: "xbox.not_found"}
	appErr, ok := classifyStatus(req, http.StatusNotFound, nil)
	if ok {
		t.Fatal("classifyStatus(404) should not be ok")
	}
	if appErr.Code != "xbox.not_found" || appErr.Kind != apperror.KindFail {
		t.Errorf("classifyStatus(404) = %+v, want Fail kind, code xbox.not_found", appErr)
	}
}

func TestClassifyStatus_NotFoundWithoutCodeFallsThrough(t *testing.T) {
	t.Parallel()
	req := Request{FailCode: "minecraft.api_failure"}
	appErr, ok := classifyStatus(req, http.StatusNotFound, nil)
	if ok {
		t.Fatal("classifyStatus(404) should not be ok")
	}
	if appErr.Code != "minecraft.api_failure" {
		t.Errorf("classifyStatus(404) code = %q, want minecraft.api_failure (no NotFoundCode set)", appErr.Code)
	}
}

func TestClassifyStatus_Default(t *testing.T) {
	t.Parallel()
	req := Request{FailCode: "steam.api_failure"}
	appErr, ok := classifyStatus(req, http.StatusInternalServerError, nil)
	if ok {
		t.Fatal("classifyStatus(500) should not be ok")
	}
	if appErr.Code != "steam.api_failure" || appErr.Kind != apperror.KindError {
		t.Errorf("classifyStatus(500) = %+v, want Error kind, code steam.api_failure", appErr)
	}
}

func TestClassifyStatus_DefaultCarriesBody(t *testing.T) {
	t.Parallel()
	req := Request{FailCode: "minecraft.api_failure"}
	body := []byte(`{"path":"/minecraft/profile/lookup/name/nope","errorMessage":"Couldn't find any profile with name: nope"}`)
	appErr, ok := classifyStatus(req, http.StatusNotFound, body)
	if ok {
		t.Fatal("classifyStatus(404) should not be ok")
	}
	if appErr.Data["body"] != string(body) {
		t.Errorf("classifyStatus(404) Data[body] = %q, want %q", appErr.Data["body"], body)
	}
}

func TestCheckContentType_AcceptsJSON(t *testing.T) {
	t.Parallel()
	for _, ct := range []string{"application/json", "application/json; charset=utf-8", "text/json", "application/vnd.api+json"} {
		h := http.Header{"Content-Type": []string{ct}}
		if err := checkContentType(h, "xbox.non_json"); err != nil {
			t.Errorf("checkContentType(%q) = %v, want nil", ct, err)
		}
	}
}

func TestCheckContentType_RejectsNonJSON(t *testing.T) {
	t.Parallel()
	h := http.Header{"Content-Type": []string{"text/html"}}
	err := checkContentType(h, "xbox.non_json")
	appErr, ok := err.(*apperror.Error)
	if !ok || appErr.Code != "xbox.non_json" {
		t.Fatalf("checkContentType(text/html) = %v, want *apperror.Error{Code: xbox.non_json}", err)
	}
}

func TestCheckContentType_RejectsMissing(t *testing.T) {
	t.Parallel()
	err := checkContentType(http.Header{}, "minecraft.non_json")
	appErr, ok := err.(*apperror.Error)
	if !ok || appErr.Code != "minecraft.non_json" {
		t.Fatalf("checkContentType(missing) = %v, want *apperror.Error{Code: minecraft.non_json}", err)
	}
}

func TestCheckContentType_RejectsUnparsable(t *testing.T) {
	t.Parallel()
	h := http.Header{"Content-Type": []string{";;;malformed"}}
	err := checkContentType(h, "steam.non_json")
	if err == nil {
		t.Fatal("checkContentType(malformed) should error")
	}
}
