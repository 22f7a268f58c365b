// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package zoetrope is a container for the packages that drive a stepper
// motor zoetrope and its strobe LED.
//
// The step loop lives in scheduler; geometry, tracker, strobe and stepper
// are its building blocks. cmd/zoetrope is the program.
package zoetrope
